package websocket

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// startHeartbeat arms the read deadline and pings the peer until stopHeartbeat.
// Every pong or message pushes the deadline back; a silent peer times out the
// read loop, which unsubscribes it.
func (that *Server) startHeartbeat(c *client) error {
	if err := c.conn.SetReadDeadline(time.Now().Add(that.pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(that.pongWait))
	})

	c.done = make(chan struct{})

	go that.pingLoop(c)

	return nil
}

func (that *Server) pingLoop(c *client) {
	log := that.logger.With("method", "pingLoop")

	ticker := time.NewTicker(that.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (that *client) stopHeartbeat() {
	that.stopOnce.Do(func() {
		if that.done != nil {
			close(that.done)
		}
	})
}
