package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/config"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/words"
)

type testServer struct {
	server   *Server
	registry *room.Registry
	http     *httptest.Server
	wsURL    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Security.RateLimit.MaxPerSecond = 100
	cfg.Security.RateLimit.MaxPerMinute = 1000

	registry := room.NewRegistry(zap.NewNop())
	store, err := words.NewFileStore(filepath.Join(t.TempDir(), "words.json"))
	require.NoError(t, err)

	s, err := NewServer(Deps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Registry: registry,
		Relay:    relay.NewBroadcast(registry, zap.NewNop()),
		Bank:     words.NewBank(store, zap.NewNop(), nil),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Shutdown()
		ts.Close()
		registry.Close()
	})

	return &testServer{
		server:   s,
		registry: registry,
		http:     ts,
		wsURL:    "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

// dial connects and consumes the connected greeting.
func (ts *testServer) dial(t *testing.T) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, protocol.MsgConnected, msg.Type)
	p, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
	require.NoError(t, err)
	require.NotEmpty(t, p.MemberID)
	return conn, p.MemberID
}

func readMessage(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := codec.Decode(data)
	require.NoError(t, err)
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := codec.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func join(t *testing.T, conn *websocket.Conn, code, role string) {
	t.Helper()
	send(t, conn, &protocol.Message{Type: protocol.MsgJoinRoom, RoomCode: code, Role: role})
	msg := readMessage(t, conn)
	require.Equal(t, protocol.MsgRoomJoined, msg.Type)
	require.Equal(t, code, msg.RoomCode)
}

// assertSilent checks that nothing arrives on conn for a short while.
func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := conn.ReadMessage()
	assert.Error(t, err, "unexpected message: %s", data)
}

func TestServer_RelayBetweenMembers(t *testing.T) {
	ts := newTestServer(t)

	judge, judgeID := ts.dial(t)
	display, _ := ts.dial(t)
	other, _ := ts.dial(t)

	join(t, judge, "4821", protocol.RoleJudge)
	join(t, display, "4821", protocol.RoleDisplay)
	join(t, other, "1234", protocol.RoleDisplay)
	assert.True(t, ts.registry.Contains("4821", judgeID))

	send(t, judge, &protocol.Message{
		Type:     protocol.EventWordSelected,
		RoomCode: "4821",
		Payload:  json.RawMessage(`{"word":"kangoeroe","availableInfo":["definition","sentence"],"secret":"x"}`),
	})

	msg := readMessage(t, display)
	assert.Equal(t, protocol.EventWordSelected, msg.Type)
	assert.Equal(t, "4821", msg.RoomCode)
	assert.JSONEq(t, `{"word":"kangoeroe","availableInfo":["definition","sentence"]}`, string(msg.Payload))

	assertSilent(t, judge)
	assertSilent(t, other)
}

func TestServer_RelayRequiresMembership(t *testing.T) {
	ts := newTestServer(t)
	conn, _ := ts.dial(t)

	send(t, conn, &protocol.Message{Type: protocol.EventTimerReset, RoomCode: "4821"})

	msg := readMessage(t, conn)
	require.Equal(t, protocol.MsgError, msg.Type)
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotInRoom, p.Code)
}

func TestServer_HTTPTriggerReachesMembers(t *testing.T) {
	ts := newTestServer(t)
	judge, judgeID := ts.dial(t)
	display, _ := ts.dial(t)
	join(t, judge, "4821", protocol.RoleJudge)
	join(t, display, "4821", protocol.RoleDisplay)

	body := `{"roomCode":"4821","senderId":"` + judgeID + `","duration":90}`
	resp, err := http.Post(ts.http.URL+"/api/pusher/timer-start", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	msg := readMessage(t, display)
	assert.Equal(t, protocol.EventTimerStart, msg.Type)
	assert.JSONEq(t, `{"duration":90}`, string(msg.Payload))
	assertSilent(t, judge)
}

func TestServer_DisconnectLeavesRooms(t *testing.T) {
	ts := newTestServer(t)
	conn, id := ts.dial(t)
	join(t, conn, "4821", protocol.RoleDisplay)
	require.Equal(t, 1, ts.server.GetOnlineCount())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return ts.server.GetOnlineCount() == 0 && !ts.registry.Contains("4821", id)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, ts.registry.Codes())
}

func TestServer_Maintenance(t *testing.T) {
	ts := newTestServer(t)
	conn, _ := ts.dial(t)

	ts.server.EnterMaintenanceMode()

	msg := readMessage(t, conn)
	require.Equal(t, protocol.MsgError, msg.Type)
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeMaintenance, p.Code)

	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_OriginRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.server.originChecker = NewOriginChecker([]string{"https://bee.example.com"})

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{Config: config.Default()})
	assert.Error(t, err)
}
