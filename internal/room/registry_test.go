package room

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/server/storage"
	"github.com/palemoky/spelling-bee/internal/testutil"
)

func TestValidCode(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidCode("4821"))
	assert.True(t, ValidCode("0000"))
	assert.False(t, ValidCode("482"))
	assert.False(t, ValidCode("48211"))
	assert.False(t, ValidCode("48a1"))
	assert.False(t, ValidCode(""))
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 7))
	for range 1000 {
		code := GenerateCode(rng)
		require.True(t, ValidCode(code), code)
		assert.GreaterOrEqual(t, code, "1000")
		assert.LessOrEqual(t, code, "9999")
	}
}

func TestRegistry_JoinLeaveLifecycle(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zap.NewNop())
	judge := testutil.NewMember("j", "judge")
	display := testutil.NewMember("d", "display")

	created, err := r.Join("4821", judge)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.Join("4821", display)
	require.NoError(t, err)
	assert.False(t, created)

	// Joining twice does not duplicate
	_, err = r.Join("4821", display)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Size("4821"))

	others := r.Others("4821", "j")
	require.Len(t, others, 1)
	assert.Equal(t, "d", others[0].GetID())
	assert.Len(t, r.Members("4821"), 2)
	assert.True(t, r.Contains("4821", "j"))

	assert.True(t, r.Leave("4821", "j"))
	assert.False(t, r.Leave("4821", "j"))
	assert.Equal(t, []string{"4821"}, r.Codes())

	// Last member out drops the room
	assert.True(t, r.Leave("4821", "d"))
	assert.Empty(t, r.Codes())
	assert.Nil(t, r.Members("4821"))
	_, ok := r.Snapshot("4821")
	assert.False(t, ok)

	// Rejoin recreates it fresh
	created, err = r.Join("4821", display)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, r.Size("4821"))
}

func TestRegistry_InvalidCode(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zap.NewNop())
	_, err := r.Join("12", testutil.NewMember("a", ""))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRoomCode)
	assert.Empty(t, r.Codes())
}

func TestRegistry_LeaveAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zap.NewNop())
	m := testutil.NewMember("m", "display")
	other := testutil.NewMember("o", "judge")
	for _, code := range []string{"2222", "1111"} {
		_, err := r.Join(code, m)
		require.NoError(t, err)
	}
	_, err := r.Join("1111", other)
	require.NoError(t, err)

	assert.Equal(t, []string{"1111", "2222"}, r.LeaveAll("m"))
	assert.Equal(t, []string{"1111"}, r.Codes())
	assert.Empty(t, r.LeaveAll("m"))
}

func TestRegistry_Snapshots(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	r := NewRegistry(zap.NewNop(), WithClock(func() time.Time { return now }))
	_, _ = r.Join("4821", testutil.NewMember("j", "judge"))
	_, _ = r.Join("4821", testutil.NewMember("d", "display"))
	_, _ = r.Join("1000", testutil.NewMember("a", ""))

	snap, ok := r.Snapshot("4821")
	require.True(t, ok)
	assert.Equal(t, []storage.MemberData{{ID: "j", Role: "judge"}, {ID: "d", Role: "display"}}, snap.Members)
	assert.Equal(t, now.Unix(), snap.CreatedAt)

	all := r.Snapshots()
	require.Len(t, all, 2)
	assert.Equal(t, "1000", all[0].Code)
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zap.NewNop())
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			code := fmt.Sprintf("%04d", 1000+i%5)
			m := testutil.NewMember(fmt.Sprintf("m%d", i), "")
			_, err := r.Join(code, m)
			assert.NoError(t, err)
			_ = r.Others(code, m.ID)
			r.Leave(code, m.ID)
		})
	}
	wg.Wait()
	assert.Empty(t, r.Codes())
}

func TestRegistry_MirrorWritesInOrder(t *testing.T) {
	t.Parallel()

	mirror := new(testutil.MockRoomMirror)
	var mu sync.Mutex
	var ops []string
	mirror.On("SaveRoom", mock.Anything, mock.AnythingOfType("*storage.RoomData")).
		Run(func(args mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			data := args.Get(1).(*storage.RoomData)
			ops = append(ops, fmt.Sprintf("save %s %d", data.Code, len(data.Members)))
		}).Return(nil)
	mirror.On("DeleteRoom", mock.Anything, "4821").
		Run(func(mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			ops = append(ops, "delete 4821")
		}).Return(nil)

	r := NewRegistry(zap.NewNop(), WithMirror(mirror))
	_, _ = r.Join("4821", testutil.NewMember("j", "judge"))
	_, _ = r.Join("4821", testutil.NewMember("d", "display"))
	r.Leave("4821", "j")
	r.Leave("4821", "d")
	r.Close()

	assert.Equal(t, []string{"save 4821 1", "save 4821 2", "save 4821 1", "delete 4821"}, ops)

	// Changes after Close are not mirrored and do not panic
	_, err := r.Join("4821", testutil.NewMember("x", ""))
	assert.NoError(t, err)
	r.Close()
}

func TestRegistry_MirrorFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	mirror := new(testutil.MockRoomMirror)
	mirror.On("SaveRoom", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	r := NewRegistry(zap.New(core), WithMirror(mirror))
	created, err := r.Join("4821", testutil.NewMember("j", "judge"))
	require.NoError(t, err)
	assert.True(t, created)
	r.Close()

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "room mirror write failed", logs.All()[0].Message)
}
