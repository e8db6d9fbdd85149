// Package ws is the transport adapter: it accepts office websocket
// connections, feeds inbound actions to the coordinator and delivers
// the coordinator's unicasts and broadcasts.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/office"
)

var ErrBackpressure = errors.New("backpressure")

const sendBuffer = 32

type conn struct {
	id   office.ConnID
	sock *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(sock *websocket.Conn) *conn {
	return &conn{
		id:   office.ConnID(uuid.NewString()),
		sock: sock,
		send: make(chan []byte, sendBuffer),
	}
}

// TrySend never blocks: a full buffer means the peer is too slow and
// the frame is dropped for this connection only.
func (c *conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
	c.mu.Unlock()
}

func (c *conn) writePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "ws").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sock.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.sock.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("ping failed")
				return
			}
		}
	}
}
