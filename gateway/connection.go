package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	helloTimeout = 10 * time.Second
	maxFrameSize = 4 << 20
)

// connection is one websocket connection. Reads happen on a single goroutine;
// writes from the reader and the heartbeat loop are serialized by writeMu.
type connection struct {
	ws     *websocket.Conn
	id     string
	logger *slog.Logger

	writeMu   sync.Mutex
	acked     atomic.Bool
	sentAt    atomic.Int64
	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, logger *slog.Logger) *connection {
	id := uuid.NewString()
	c := &connection{ws: ws, id: id, logger: logger.With("connection_id", id)}
	c.acked.Store(true)
	ws.SetReadLimit(maxFrameSize)
	return c
}

func (c *connection) write(op Opcode, d any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(outbound{Op: op, D: d}); err != nil {
		return fmt.Errorf("write %s frame: %w", op, err)
	}
	return nil
}

// read returns the next frame. Frames that are not valid JSON are reported
// with ok == false and a nil error.
func (c *connection) read() (p Payload, ok bool, err error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return Payload{}, false, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("Dropping malformed gateway frame", "error", err, "size", len(data))
		return Payload{}, false, nil
	}
	return p, true, nil
}

func (c *connection) readHello() (time.Duration, error) {
	_ = c.ws.SetReadDeadline(time.Now().Add(helloTimeout))
	defer func() { _ = c.ws.SetReadDeadline(time.Time{}) }()

	p, ok, err := c.read()
	if err != nil {
		return 0, fmt.Errorf("read hello: %w", err)
	}
	if !ok || p.Op != OpHello {
		return 0, fmt.Errorf("expected hello, got op %s", p.Op)
	}

	var h hello
	if err := json.Unmarshal(p.D, &h); err != nil {
		return 0, fmt.Errorf("decode hello: %w", err)
	}
	if h.HeartbeatInterval <= 0 {
		return 0, fmt.Errorf("invalid heartbeat interval %d", h.HeartbeatInterval)
	}
	return time.Duration(h.HeartbeatInterval) * time.Millisecond, nil
}

// close tears the connection down. A graceful close sends a normal closure
// frame first, which ends the session on the platform side.
func (c *connection) close(graceful bool) {
	c.closeOnce.Do(func() {
		if graceful {
			c.writeMu.Lock()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			c.writeMu.Unlock()
		}
		_ = c.ws.Close()
	})
}
