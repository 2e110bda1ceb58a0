package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/repository/memory"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestManager() *usecase.GameManager {
	return usecase.NewGameManager(newTestLogger(), memory.NewGameRepository())
}

func startServer(t *testing.T, server *Server) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func newTestServer(t *testing.T) string {
	t.Helper()

	return startServer(t, New(newTestLogger(), newTestManager()))
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	})

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

func receive(t *testing.T, conn *websocket.Conn) (string, ResponsePayload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	var payload ResponsePayload
	if len(msg.Payload) > 0 {
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	}

	return msg.Action, payload
}

func cell(row, col int) map[string]int {
	return map[string]int{"row": row, "col": col}
}

func TestServer_SharedGame(t *testing.T) {
	url := newTestServer(t)
	first := dial(t, url)
	second := dial(t, url)

	// Given: the first client creates a game and the second joins it
	send(t, first, actionGameNew, struct{}{})
	action, created := receive(t, first)
	require.Equal(t, actionGameNew, action)
	require.NotNil(t, created.Game)
	assert.Equal(t, "Player X turn", created.Game.View.Status)

	send(t, second, actionGameJoin, map[string]string{"game_id": created.Game.ID})
	action, joined := receive(t, second)
	require.Equal(t, actionGameJoin, action)
	require.Equal(t, created.Game.ID, joined.Game.ID)

	// When: the first client plays
	send(t, first, actionGameTurn, cell(0, 0))

	// Then: both clients see the move
	for _, conn := range []*websocket.Conn{first, second} {
		action, payload := receive(t, conn)
		require.Equal(t, actionGameTurn, action)
		assert.Equal(t, entity.PlayerX, payload.Game.Game.Board[0][0])
		assert.Equal(t, "Player O turn", payload.Game.View.Status)
	}

	// When: the second client plays the same tile
	send(t, second, actionGameTurn, cell(0, 0))

	// Then: only the second client is told the tile is taken
	action, payload := receive(t, second)
	require.Equal(t, actionGameTurn, action)
	assert.Equal(t, "Tile already taken.", payload.Game.View.Status)

	// When: the first client restarts
	send(t, first, actionGameRestart, struct{}{})

	// Then: both clients receive the cleared board
	for _, conn := range []*websocket.Conn{first, second} {
		action, payload := receive(t, conn)
		require.Equal(t, actionGameRestart, action)
		assert.Equal(t, entity.NewGame(), payload.Game.Game)
	}
}

func TestServer_Errors(t *testing.T) {
	url := newTestServer(t)
	conn := dial(t, url)

	t.Run("Turn before joining", func(t *testing.T) {
		send(t, conn, actionGameTurn, cell(0, 0))

		action, payload := receive(t, conn)
		assert.Equal(t, actionGameTurn, action)
		assert.Equal(t, errMsgNotJoined, payload.Error)
	})

	t.Run("Join unknown game", func(t *testing.T) {
		send(t, conn, actionGameJoin, map[string]string{"game_id": "missing"})

		_, payload := receive(t, conn)
		assert.Equal(t, "game not found", payload.Error)
	})

	t.Run("Unknown action", func(t *testing.T) {
		send(t, conn, "game:undo", struct{}{})

		action, payload := receive(t, conn)
		assert.Equal(t, "game:undo", action)
		assert.Equal(t, "unknown action", payload.Error)
	})

	t.Run("Malformed message keeps the connection open", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))

		action, payload := receive(t, conn)
		assert.Equal(t, actionError, action)
		assert.Equal(t, "malformed message", payload.Error)

		send(t, conn, actionGameNew, struct{}{})
		action, payload = receive(t, conn)
		assert.Equal(t, actionGameNew, action)
		assert.NotNil(t, payload.Game)
	})

	t.Run("Out of range cell", func(t *testing.T) {
		send(t, conn, actionGameTurn, cell(5, 5))

		_, payload := receive(t, conn)
		assert.Equal(t, "invalid cell index", payload.Error)
	})

	t.Run("Leave", func(t *testing.T) {
		send(t, conn, actionGameLeave, struct{}{})
		action, _ := receive(t, conn)
		require.Equal(t, actionGameLeave, action)

		send(t, conn, actionGameRestart, struct{}{})
		_, payload := receive(t, conn)
		assert.Equal(t, errMsgNotJoined, payload.Error)
	})
}

// slowFirstTurn holds back the result of the first move so a second move can
// be applied while the first one is still on its way to the clients.
type slowFirstTurn struct {
	*usecase.GameManager

	calls   atomic.Int32
	applied chan struct{}
	delay   time.Duration
}

func (that *slowFirstTurn) MakeTurn(ctx context.Context, id string, row, col int) (*entity.Session, entity.Outcome, error) {
	session, outcome, err := that.GameManager.MakeTurn(ctx, id, row, col)

	if that.calls.Add(1) == 1 {
		close(that.applied)
		time.Sleep(that.delay)
	}

	return session, outcome, err
}

func (that *Server) subscriberCount(gameID string) int {
	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	return len(that.subscribers[gameID])
}

func TestServer_BroadcastOrder(t *testing.T) {
	manager := &slowFirstTurn{
		GameManager: newTestManager(),
		applied:     make(chan struct{}),
		delay:       200 * time.Millisecond,
	}
	url := startServer(t, New(newTestLogger(), manager))

	playerX, playerO, watcher := dial(t, url), dial(t, url), dial(t, url)

	// Given: two players and a watcher joined to the same game
	send(t, playerX, actionGameNew, struct{}{})
	_, created := receive(t, playerX)
	gameID := created.Game.ID

	for _, conn := range []*websocket.Conn{playerO, watcher} {
		send(t, conn, actionGameJoin, map[string]string{"game_id": gameID})
		action, _ := receive(t, conn)
		require.Equal(t, actionGameJoin, action)
	}

	// When: O moves while the result of X's move is still being delivered
	send(t, playerX, actionGameTurn, cell(0, 0))
	<-manager.applied
	send(t, playerO, actionGameTurn, cell(1, 1))

	// Then: the watcher receives both states in the order they were stored
	_, first := receive(t, watcher)
	_, second := receive(t, watcher)

	assert.Equal(t, entity.PlayerX, first.Game.Game.Board[0][0])
	assert.Equal(t, entity.NoPlayer, first.Game.Game.Board[1][1])
	assert.Equal(t, "Player O turn", first.Game.View.Status)

	stored, err := manager.GetGame(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, stored.Game, second.Game.Game)
	assert.Equal(t, "Player X turn", second.Game.View.Status)
}

func TestServer_Heartbeat(t *testing.T) {
	newFastServer := func() *Server {
		server := New(newTestLogger(), newTestManager())
		server.pongWait = 150 * time.Millisecond
		server.pingInterval = 50 * time.Millisecond

		return server
	}

	t.Run("Silent peer is dropped", func(t *testing.T) {
		server := newFastServer()
		conn := dial(t, startServer(t, server))

		// Given: a client joined to a game
		send(t, conn, actionGameNew, struct{}{})
		_, created := receive(t, conn)
		require.Equal(t, 1, server.subscriberCount(created.Game.ID))

		// When: the client stops reading, so pings go unanswered
		// Then: the server drops the connection and its subscription
		assert.Eventually(t, func() bool {
			return server.subscriberCount(created.Game.ID) == 0
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("Responsive peer stays subscribed", func(t *testing.T) {
		server := newFastServer()
		conn := dial(t, startServer(t, server))

		// Given: a client joined to a game
		send(t, conn, actionGameNew, struct{}{})
		_, created := receive(t, conn)

		// When: the client keeps reading, answering every ping
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		time.Sleep(4 * server.pongWait)

		// Then: the subscription survives well past the pong wait
		assert.Equal(t, 1, server.subscriberCount(created.Game.ID))
	})
}
