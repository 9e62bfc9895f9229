//go:build !production

package testutil

import (
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/spelling-bee/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRole() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRole(role string) {
	m.Called(role)
}

func (m *MockClient) Deliver(ev protocol.Event) bool {
	args := m.Called(ev)
	return args.Bool(0)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) AddRoom(code string) {
	m.Called(code)
}

func (m *MockClient) RemoveRoom(code string) {
	m.Called(code)
}

func (m *MockClient) Rooms() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockClient) Close() {
	m.Called()
}

// RecordingMember 记录收到事件的成员，不使用 testify（并发安全）
type RecordingMember struct {
	ID   string
	Role string
	// Capacity > 0 makes Deliver drop events once that many are queued.
	Capacity int

	mu     sync.Mutex
	events []protocol.Event
}

func NewMember(id, role string) *RecordingMember {
	return &RecordingMember{ID: id, Role: role}
}

func (m *RecordingMember) GetID() string   { return m.ID }
func (m *RecordingMember) GetRole() string { return m.Role }

func (m *RecordingMember) Deliver(ev protocol.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Capacity > 0 && len(m.events) >= m.Capacity {
		return false
	}
	m.events = append(m.events, ev)
	return true
}

// Events returns a copy of everything delivered so far.
func (m *RecordingMember) Events() []protocol.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Names returns the delivered event names in order.
func (m *RecordingMember) Names() []protocol.MessageType {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]protocol.MessageType, len(m.events))
	for i, ev := range m.events {
		names[i] = ev.Name
	}
	return names
}
