//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/spelling-bee/internal/server/storage"
	"github.com/palemoky/spelling-bee/internal/words"
)

// MockWordStore 实现 words.Store 的 mock
type MockWordStore struct {
	mock.Mock
}

func (m *MockWordStore) List(ctx context.Context) ([]words.Word, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]words.Word), args.Error(1)
}

func (m *MockWordStore) Get(ctx context.Context, id int) (words.Word, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(words.Word), args.Error(1)
}

func (m *MockWordStore) Create(ctx context.Context, w words.Word) (words.Word, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(words.Word), args.Error(1)
}

func (m *MockWordStore) Update(ctx context.Context, id int, w words.Word) (words.Word, error) {
	args := m.Called(ctx, id, w)
	return args.Get(0).(words.Word), args.Error(1)
}

func (m *MockWordStore) Delete(ctx context.Context, id int) (words.Word, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(words.Word), args.Error(1)
}

func (m *MockWordStore) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockWordStore) Close() error {
	return m.Called().Error(0)
}

// MockRoomMirror 房间快照存储 mock
type MockRoomMirror struct {
	mock.Mock
}

func (m *MockRoomMirror) SaveRoom(ctx context.Context, data *storage.RoomData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockRoomMirror) DeleteRoom(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
