// Package server accepts game clients over TCP and feeds their frames to the services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mcoot/lightsduel/internal/protocol"
)

// Config holds game server configuration
type Config struct {
	Addr           string        `mapstructure:"addr"`
	MaxConnections int64         `mapstructure:"max_connections"`
	Workers        int           `mapstructure:"workers"`
	JobQueue       int           `mapstructure:"job_queue"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	MaxFrameSize   int           `mapstructure:"max_frame_size"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:           ":5555",
		MaxConnections: 1024,
		Workers:        8,
		JobQueue:       256,
		SendBuffer:     64,
		MaxFrameSize:   protocol.DefaultMaxFrameSize,
		WriteTimeout:   10 * time.Second,
	}
}

// Server is the game's TCP front end
type Server struct {
	cfg        Config
	dispatcher *Dispatcher
	logger     *slog.Logger

	mu  sync.Mutex
	mux *Multiplexer
}

// New creates a new server
func New(cfg Config, dispatcher *Dispatcher, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaults.MaxConnections
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.JobQueue <= 0 {
		cfg.JobQueue = defaults.JobQueue
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = defaults.MaxFrameSize
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes every
// connection and waits for the workers to stop
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	pool := NewWorkerPool(s.cfg.Workers, s.cfg.JobQueue, s.logger)
	mux := NewMultiplexer(s.dispatcher, pool, s.cfg.MaxFrameSize, s.logger)
	s.mu.Lock()
	s.mux = mux
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)
	var conns sync.WaitGroup

	g.Go(func() error { return pool.Run(ctx) })
	g.Go(func() error { return mux.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.accept(ctx, ln, mux, &conns)
	})

	err := g.Wait()
	conns.Wait()
	s.logger.Info("game server stopped")
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Connections returns the number of live connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mux == nil {
		return 0
	}
	return s.mux.Len()
}

func (s *Server) accept(ctx context.Context, ln net.Listener, mux *Multiplexer, conns *sync.WaitGroup) error {
	slots := semaphore.NewWeighted(s.cfg.MaxConnections)
	for {
		if err := slots.Acquire(ctx, 1); err != nil {
			return nil
		}
		nc, err := ln.Accept()
		if err != nil {
			slots.Release(1)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		conn := newConn(uuid.NewString(), nc, s.cfg.SendBuffer, s.cfg.WriteTimeout, s.logger)
		conns.Add(1)
		go func() {
			defer conns.Done()
			defer slots.Release(1)
			mux.serve(ctx, conn)
		}()
	}
}
