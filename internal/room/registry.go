// Package room tracks which members are in which room. A room exists only
// while it has members.
package room

import (
	"context"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/server/storage"
	"github.com/palemoky/spelling-bee/internal/types"
)

var codePattern = regexp.MustCompile(`^\d{4}$`)

// ValidCode reports whether code is a 4-digit room code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode returns a code in 1000..9999. It does not check for
// collisions with open rooms.
func GenerateCode(rng *rand.Rand) string {
	return strconv.Itoa(1000 + rng.IntN(9000))
}

// Mirror receives room snapshots, e.g. storage.RedisStore.
type Mirror interface {
	SaveRoom(ctx context.Context, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, code string) error
}

type room struct {
	code      string
	createdAt time.Time
	members   map[string]types.Member
	order     []string
}

func (r *room) snapshot(now time.Time) *storage.RoomData {
	data := &storage.RoomData{
		Code:      r.code,
		Members:   make([]storage.MemberData, 0, len(r.order)),
		CreatedAt: r.createdAt.Unix(),
		UpdatedAt: now.Unix(),
	}
	for _, id := range r.order {
		data.Members = append(data.Members, storage.MemberData{ID: id, Role: r.members[id].GetRole()})
	}
	return data
}

type mirrorOp struct {
	code string
	data *storage.RoomData // nil means delete
}

// Registry maps room codes to members.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	log   *zap.Logger
	now   func() time.Time

	mirror    Mirror
	queue     chan mirrorOp
	done      chan struct{}
	closed    bool
	closeOnce sync.Once
}

// Option configures a Registry.
type Option func(*Registry)

// WithMirror saves snapshots to m on every membership change. Writes happen
// in order on a background goroutine; failures are logged.
func WithMirror(m Mirror) Option {
	return func(r *Registry) { r.mirror = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry 创建房间注册表
func NewRegistry(log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		rooms: make(map[string]*room),
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mirror != nil {
		r.queue = make(chan mirrorOp, 256)
		r.done = make(chan struct{})
		go r.runMirror()
	}
	return r
}

// Join adds m to the room, creating the room if needed. Joining twice is a
// no-op. It reports whether the room was created.
func (r *Registry) Join(code string, m types.Member) (bool, error) {
	if !ValidCode(code) {
		return false, apperrors.ErrInvalidRoomCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, exists := r.rooms[code]
	if !exists {
		rm = &room{
			code:      code,
			createdAt: r.now(),
			members:   make(map[string]types.Member),
		}
		r.rooms[code] = rm
		r.log.Info("room opened", zap.String("room", code))
	}
	if _, member := rm.members[m.GetID()]; !member {
		rm.members[m.GetID()] = m
		rm.order = append(rm.order, m.GetID())
		r.log.Debug("member joined",
			zap.String("room", code),
			zap.String("member", m.GetID()),
			zap.String("role", m.GetRole()),
		)
	}
	r.enqueue(mirrorOp{code: code, data: rm.snapshot(r.now())})
	return !exists, nil
}

// Leave removes memberID from the room and reports whether it was a member.
// The room is dropped when its last member leaves.
func (r *Registry) Leave(code, memberID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(code, memberID)
}

func (r *Registry) leaveLocked(code, memberID string) bool {
	rm, exists := r.rooms[code]
	if !exists {
		return false
	}
	if _, member := rm.members[memberID]; !member {
		return false
	}
	delete(rm.members, memberID)
	rm.order = slices.DeleteFunc(rm.order, func(id string) bool { return id == memberID })
	r.log.Debug("member left", zap.String("room", code), zap.String("member", memberID))

	if len(rm.members) == 0 {
		delete(r.rooms, code)
		r.log.Info("room closed", zap.String("room", code))
		r.enqueue(mirrorOp{code: code})
	} else {
		r.enqueue(mirrorOp{code: code, data: rm.snapshot(r.now())})
	}
	return true
}

// LeaveAll removes memberID from every room and returns the codes it left.
func (r *Registry) LeaveAll(memberID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for code, rm := range r.rooms {
		if _, member := rm.members[memberID]; member {
			left = append(left, code)
		}
	}
	slices.Sort(left)
	for _, code := range left {
		r.leaveLocked(code, memberID)
	}
	return left
}

// Members returns the room's members in join order.
func (r *Registry) Members(code string) []types.Member {
	return r.Others(code, "")
}

// Others returns every member of the room except exceptID.
func (r *Registry) Others(code, exceptID string) []types.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, exists := r.rooms[code]
	if !exists {
		return nil
	}
	out := make([]types.Member, 0, len(rm.order))
	for _, id := range rm.order {
		if id != exceptID {
			out = append(out, rm.members[id])
		}
	}
	return out
}

// Contains reports whether memberID is in the room.
func (r *Registry) Contains(code, memberID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, exists := r.rooms[code]
	if !exists {
		return false
	}
	_, member := rm.members[memberID]
	return member
}

// Size returns the number of members in the room.
func (r *Registry) Size(code string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rm, exists := r.rooms[code]; exists {
		return len(rm.members)
	}
	return 0
}

// Codes returns the open room codes in ascending order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Snapshot returns the room's current snapshot, or false if it is not open.
func (r *Registry) Snapshot(code string) (*storage.RoomData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, exists := r.rooms[code]
	if !exists {
		return nil, false
	}
	return rm.snapshot(r.now()), true
}

// Snapshots returns every open room ordered by code.
func (r *Registry) Snapshots() []*storage.RoomData {
	codes := r.Codes()
	out := make([]*storage.RoomData, 0, len(codes))
	for _, code := range codes {
		if data, ok := r.Snapshot(code); ok {
			out = append(out, data)
		}
	}
	return out
}

// enqueue must be called with r.mu held so ops are queued in mutation order.
func (r *Registry) enqueue(op mirrorOp) {
	if r.queue == nil || r.closed {
		return
	}
	select {
	case r.queue <- op:
	default:
		r.log.Warn("room mirror queue full, snapshot dropped", zap.String("room", op.code))
	}
}

func (r *Registry) runMirror() {
	defer close(r.done)
	for op := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		var err error
		if op.data == nil {
			err = r.mirror.DeleteRoom(ctx, op.code)
		} else {
			err = r.mirror.SaveRoom(ctx, op.data)
		}
		cancel()
		if err != nil {
			r.log.Error("room mirror write failed", zap.String("room", op.code), zap.Error(err))
		}
	}
}

// Close flushes pending mirror writes. Later changes are not mirrored.
func (r *Registry) Close() {
	if r.queue == nil {
		return
	}
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		<-r.done
	})
}
