package network_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pongmatch/internal/game"
	"pongmatch/internal/network"
)

// queryAuth autentica pelo parâmetro ?user=.
type queryAuth struct{}

func (queryAuth) Authenticate(r *http.Request) (game.Identity, error) {
	user := r.URL.Query().Get("user")
	if user == "" {
		return game.Identity{}, game.Errorf(game.CodeNotAuthenticated, "missing token")
	}
	return game.Identity{UserID: user, Username: "user-" + user}, nil
}

// echoHandler devolve cada mensagem recebida e avisa conexões e desconexões.
type echoHandler struct {
	connected    chan game.Identity
	disconnected chan string
}

func newEchoHandler() *echoHandler {
	return &echoHandler{connected: make(chan game.Identity, 4), disconnected: make(chan string, 4)}
}

func (h *echoHandler) OnConnect(c network.Conn) {
	msg, _ := network.NewMessage("connected", "", map[string]string{"userId": c.Identity().UserID})
	c.Deliver(msg)
	h.connected <- c.Identity()
}

func (h *echoHandler) OnDisconnect(c network.Conn) {
	h.disconnected <- c.Identity().UserID
}

func (h *echoHandler) OnMessage(c network.Conn, msg network.Message) {
	c.Deliver(msg)
}

func startServer(t *testing.T, h network.EventHandler, origins ...string) *httptest.Server {
	t.Helper()
	s := network.NewServer(h, queryAuth{}, network.ServerOptions{AllowedOrigins: origins})
	ctx, cancel := context.WithCancel(context.Background())
	go s.RunHub(ctx)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func TestServer_RejectsUnauthenticated(t *testing.T) {
	srv := startServer(t, newEchoHandler())

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ERROR", body["status"])
	assert.Equal(t, "NOT_AUTHENTICATED", body["code"])
	assert.Equal(t, "missing token", body["message"])

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_ConnectEchoDisconnect(t *testing.T) {
	h := newEchoHandler()
	srv := startServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?user=alice"), nil)
	require.NoError(t, err)

	select {
	case id := <-h.connected:
		assert.Equal(t, "alice", id.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var hello network.Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	out, err := network.NewMessage("move_paddle", "7", map[string]any{"matchId": "m1", "y": 10})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(out))

	var echoed network.Message
	require.NoError(t, conn.ReadJSON(&echoed))
	assert.Equal(t, "move_paddle", echoed.Type)
	assert.Equal(t, "7", echoed.ID)
	assert.JSONEq(t, `{"matchId":"m1","y":10}`, string(echoed.Payload))

	require.NoError(t, conn.Close())
	select {
	case user := <-h.disconnected:
		assert.Equal(t, "alice", user)
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
}

func TestServer_RejectsDisallowedOrigin(t *testing.T) {
	srv := startServer(t, newEchoHandler(), "http://good.test")

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "?user=bob"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://good.test")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?user=bob"), header)
	require.NoError(t, err)
	conn.Close()
}

func TestMessage_Decode(t *testing.T) {
	msg, err := network.NewMessage("join_queue", "", map[string]string{"gameMode": "pong_1v1"})
	require.NoError(t, err)

	var dst struct {
		GameMode string `json:"gameMode"`
	}
	require.NoError(t, msg.Decode(&dst))
	assert.Equal(t, "pong_1v1", dst.GameMode)

	assert.Error(t, network.Message{Type: "join_queue"}.Decode(&dst))
	assert.Error(t, network.Message{Type: "join_queue", Payload: []byte(`[1,2]`)}.Decode(&dst))
}
