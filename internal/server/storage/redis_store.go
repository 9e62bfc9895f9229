package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "spelling-bee:room:"

	// 房间快照过期时间，成员变动时刷新
	roomExpiration = 2 * time.Hour
)

// RoomData is the operator-facing room snapshot.
type RoomData struct {
	Code      string       `json:"code"`
	Members   []MemberData `json:"members"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
}

// MemberData 成员数据
type MemberData struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client     redis.UniversalClient
	expiration time.Duration
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, expiration: roomExpiration}
}

// SaveRoom 保存房间快照
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", data.Code, err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+data.Code, jsonData, rs.expiration).Err()
}

// LoadRoom returns nil, nil when the room is not mirrored.
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &roomData, nil
}

// DeleteRoom 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	return rs.client.Del(ctx, roomKeyPrefix+code).Err()
}

// GetAllRoomCodes 获取所有房间号（SCAN，避免阻塞）
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	slices.Sort(codes)
	return codes, nil
}

// ListRooms loads every mirrored room, skipping keys that expire between
// the scan and the read.
func (rs *RedisStore) ListRooms(ctx context.Context) ([]*RoomData, error) {
	codes, err := rs.GetAllRoomCodes(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]*RoomData, 0, len(codes))
	for _, code := range codes {
		room, err := rs.LoadRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		if room != nil {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}
