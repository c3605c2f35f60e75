package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mcoot/lightsduel/internal/protocol"
	"github.com/mcoot/lightsduel/internal/services/session"
)

// Errors returned by Conn.Send
var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one accepted client socket. Reads happen on the goroutine that
// serves it; writes are queued and flushed by a dedicated writer.
type Conn struct {
	id           string
	netConn      net.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	connectedAt  time.Time
	logger       *slog.Logger
}

var _ session.Peer = (*Conn)(nil)

func newConn(id string, nc net.Conn, sendBuffer int, writeTimeout time.Duration, logger *slog.Logger) *Conn {
	return &Conn{
		id:           id,
		netConn:      nc,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		connectedAt:  time.Now(),
		logger: logger.With(
			slog.String("conn_id", id),
			slog.String("remote_addr", nc.RemoteAddr().String()),
		),
	}
}

// ID returns the connection id
func (c *Conn) ID() string {
	return c.id
}

// Send encodes a message and queues it for the writer. A client that lets
// its buffer fill up is disconnected.
func (c *Conn) Send(action protocol.Action, payload any) error {
	frame, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn("send buffer full, dropping connection", slog.String("action", string(action)))
		c.Close()
		return ErrSendBufferFull
	}
}

// Close shuts the socket. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.netConn.Close()
	})
}

// Done is closed once the connection has been closed
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// writeLoop flushes queued frames until the connection closes
func (c *Conn) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			if c.writeTimeout > 0 {
				_ = c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if _, err := c.netConn.Write(frame); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop decodes frames and hands each to handle. It returns when the
// stream ends, a frame is malformed, or handle returns false.
func (c *Conn) readLoop(maxFrameSize int, handle func(protocol.Envelope) bool) error {
	dec := protocol.NewDecoder(c.netConn, maxFrameSize)
	for {
		env, err := dec.Decode()
		if err != nil {
			return err
		}
		if !handle(env) {
			return nil
		}
	}
}
