package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/mcoot/lightsduel/internal/protocol"
)

// frame is one decoded message waiting to be handled. processed is closed
// once the handler has run, which keeps each connection's frames in order.
type frame struct {
	conn      *Conn
	env       protocol.Envelope
	processed chan struct{}
}

// Multiplexer owns the set of live connections and hands their frames to the worker pool
type Multiplexer struct {
	dispatcher   *Dispatcher
	pool         *WorkerPool
	maxFrameSize int
	logger       *slog.Logger

	conns map[string]*Conn
	live  atomic.Int64

	register   chan *Conn
	unregister chan *Conn
	frames     chan frame
}

// NewMultiplexer creates a multiplexer feeding pool
func NewMultiplexer(dispatcher *Dispatcher, pool *WorkerPool, maxFrameSize int, logger *slog.Logger) *Multiplexer {
	return &Multiplexer{
		dispatcher:   dispatcher,
		pool:         pool,
		maxFrameSize: maxFrameSize,
		logger:       logger.With(slog.String("component", "multiplexer")),
		conns:        make(map[string]*Conn),
		register:     make(chan *Conn),
		unregister:   make(chan *Conn),
		frames:       make(chan frame),
	}
}

// Run starts the event loop. It closes every live connection when ctx is done.
func (m *Multiplexer) Run(ctx context.Context) error {
	m.logger.Info("multiplexer started")
	for {
		select {
		case conn := <-m.register:
			m.conns[conn.ID()] = conn
			m.live.Store(int64(len(m.conns)))
			m.dispatcher.Connected(conn)
			conn.logger.Info("client connected", slog.Int("total_clients", len(m.conns)))

		case conn := <-m.unregister:
			if _, ok := m.conns[conn.ID()]; !ok {
				continue
			}
			delete(m.conns, conn.ID())
			m.live.Store(int64(len(m.conns)))
			conn.Close()
			conn.logger.Info("client disconnected",
				slog.Duration("connection_duration", time.Since(conn.connectedAt)),
				slog.Int("total_clients", len(m.conns)),
			)
			if err := m.pool.Submit(ctx, func(context.Context) { m.dispatcher.Disconnected(conn) }); err != nil {
				m.dispatcher.Disconnected(conn)
			}

		case f := <-m.frames:
			if _, ok := m.conns[f.conn.ID()]; !ok {
				close(f.processed)
				continue
			}
			job := func(ctx context.Context) {
				defer close(f.processed)
				if err := m.dispatcher.Handle(ctx, f.conn, f.env); err != nil {
					f.conn.logger.Warn("closing connection",
						slog.String("action", string(f.env.Action)),
						slog.String("error", err.Error()),
					)
					f.conn.Close()
				}
			}
			if err := m.pool.Submit(ctx, job); err != nil {
				close(f.processed)
			}

		case <-ctx.Done():
			count := len(m.conns)
			for id, conn := range m.conns {
				conn.Close()
				delete(m.conns, id)
			}
			m.live.Store(0)
			m.logger.Info("multiplexer stopped", slog.Int("disconnected_clients", count))
			return nil
		}
	}
}

// Len returns the number of live connections
func (m *Multiplexer) Len() int {
	return int(m.live.Load())
}

// serve runs the read side of one connection until it ends
func (m *Multiplexer) serve(ctx context.Context, conn *Conn) {
	select {
	case m.register <- conn:
	case <-ctx.Done():
		conn.Close()
		return
	}
	go conn.writeLoop()

	err := conn.readLoop(m.maxFrameSize, func(env protocol.Envelope) bool {
		f := frame{conn: conn, env: env, processed: make(chan struct{})}
		select {
		case m.frames <- f:
		case <-ctx.Done():
			return false
		}
		select {
		case <-f.processed:
			return true
		case <-ctx.Done():
			return false
		}
	})
	switch {
	case err == nil, errors.Is(err, protocol.ErrEndOfStream), errors.Is(err, net.ErrClosed):
	case errors.Is(err, protocol.ErrMalformed):
		conn.logger.Warn("malformed frame", slog.String("error", err.Error()))
	default:
		conn.logger.Debug("read failed", slog.String("error", err.Error()))
	}

	select {
	case m.unregister <- conn:
	case <-ctx.Done():
		conn.Close()
	}
}
