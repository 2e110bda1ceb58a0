package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/presenter"
)

const writeTimeout = 10 * time.Second

const (
	actionGameNew     = "game:new"
	actionGameJoin    = "game:join"
	actionGameTurn    = "game:turn"
	actionGameRestart = "game:restart"
	actionGameLeave   = "game:leave"
	actionError       = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	GameID string `json:"game_id,omitempty"`
	Row    *int   `json:"row,omitempty"`
	Col    *int   `json:"col,omitempty"`
}

type ResponsePayload struct {
	Game  *presenter.GameResponse `json:"game,omitempty"`
	Error string                  `json:"error,omitempty"`
}

// client is one socket. Reads happen on the connection goroutine only;
// writes may come from broadcasts too, so they are serialized.
type client struct {
	conn   *websocket.Conn
	gameID string

	writeMu sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
}

func (that *client) send(action string, payload ResponsePayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
