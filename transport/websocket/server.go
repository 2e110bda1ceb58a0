package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/pkg"
)

const (
	shutdownTimeout = 5 * time.Second

	// a peer that answers neither messages nor pings within pongWait is dropped
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

type gameUseCase interface {
	CreateGame(ctx context.Context) (*entity.Session, error)
	GetGame(ctx context.Context, id string) (*entity.Session, error)
	MakeTurn(ctx context.Context, id string, row, col int) (*entity.Session, entity.Outcome, error)
	RestartGame(ctx context.Context, id string) (*entity.Session, error)
}

type handlerFunc func(ctx context.Context, c *client, payload *RequestPayload) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handlerFunc

	// held from the use case call until the broadcast is out, so every
	// subscriber sees the states of one game in the order they were stored
	gameLocks *pkg.KeyedLocker

	pongWait     time.Duration
	pingInterval time.Duration

	subscribersMutex sync.Mutex
	subscribers      map[string]map[*client]struct{}
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers:  make(map[string]handlerFunc),
		gameLocks: pkg.NewKeyedLocker(),

		pongWait:     pongWait,
		pingInterval: pingInterval,

		subscribers: make(map[string]map[*client]struct{}),
	}

	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameRestart] = server.handleRestartGame
	server.handlers[actionGameLeave] = server.handleLeaveGame

	return server
}

// Handler - returns the HTTP handler serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already canceled
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves it until the peer leaves.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{conn: conn}

	defer func() {
		that.unsubscribe(c)
		conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if err = that.startHeartbeat(c); err != nil {
		log.Error("failed to start heartbeat", "error", err)
		return
	}
	defer c.stopHeartbeat()

	log.Info("WebSocket connection established", "remote", r.RemoteAddr)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		err := c.conn.ReadJSON(&message)
		if err == nil {
			err = c.conn.SetReadDeadline(time.Now().Add(that.pongWait))
		}

		if err != nil {
			if isDecodeError(err) {
				log.Warn("failed to decode message", "error", err)
				that.sendError(c, actionError, "malformed message")
				continue
			}

			return err
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		payload, err := decodePayload(message.Payload)
		if err != nil {
			that.sendError(c, message.Action, "malformed payload")
			continue
		}

		if err = handler(ctx, c, payload); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) subscribe(c *client, gameID string) {
	that.unsubscribe(c)

	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	clients, ok := that.subscribers[gameID]
	if !ok {
		clients = make(map[*client]struct{})
		that.subscribers[gameID] = clients
	}

	clients[c] = struct{}{}
	c.gameID = gameID
}

func (that *Server) unsubscribe(c *client) {
	if c.gameID == "" {
		return
	}

	that.subscribersMutex.Lock()
	defer that.subscribersMutex.Unlock()

	if clients, ok := that.subscribers[c.gameID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(that.subscribers, c.gameID)
		}
	}

	c.gameID = ""
}

// broadcast - sends the message to every client joined to the game.
func (that *Server) broadcast(gameID, action string, payload ResponsePayload) {
	log := that.logger.With("method", "broadcast")

	that.subscribersMutex.Lock()
	clients := make([]*client, 0, len(that.subscribers[gameID]))
	for c := range that.subscribers[gameID] {
		clients = append(clients, c)
	}
	that.subscribersMutex.Unlock()

	for _, c := range clients {
		if err := c.send(action, payload); err != nil {
			log.Warn("failed to deliver message", "game_id", gameID, "error", err)
		}
	}
}
