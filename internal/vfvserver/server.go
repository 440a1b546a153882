// Package vfvserver implements the Accept/IO Runtime (§4.7): the TCP
// listener, one read/write loop pair per connection, and the shared
// world/registry/handlers/broadcaster wiring cmd/vfv-server starts up.
//
// Grounded on alxayo-rtmp-go/internal/rtmp/server/server.go's accept-loop +
// connection-table shape and internal/rtmp/conn/conn.go's
// startReadLoop/startWriteLoop split, generalized from RTMP's
// handshake-then-chunk-layer pipeline to this protocol's much simpler
// raw-frame-over-TCP transport (no handshake stage).
package vfvserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sereno-labs/vfv-server/internal/broadcast"
	"github.com/sereno-labs/vfv-server/internal/bufpool"
	protoerr "github.com/sereno-labs/vfv-server/internal/errors"
	"github.com/sereno-labs/vfv-server/internal/handlers"
	"github.com/sereno-labs/vfv-server/internal/logger"
	"github.com/sereno-labs/vfv-server/internal/metrics"
	"github.com/sereno-labs/vfv-server/internal/proto"
	"github.com/sereno-labs/vfv-server/internal/session"
	"github.com/sereno-labs/vfv-server/internal/world"
)

// readBufferSize is the per-connection read(2) buffer; a message spanning
// more than one Read is reassembled by proto.Parser, not by this buffer.
const readBufferSize = 64 * 1024

// Config holds the knobs cmd/vfv-server exposes over its CLI flags (§10.2).
type Config struct {
	ListenAddr       string
	TickInterval     time.Duration
	LockOwnerTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.TickInterval == 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.LockOwnerTimeout == 0 {
		c.LockOwnerTimeout = time.Second
	}
}

// Server owns the listener, the shared world/registry/broadcaster/handlers,
// and the tick loop; one instance runs for the process lifetime.
type Server struct {
	cfg Config
	log *zap.Logger

	World    *world.World
	Registry *session.Registry
	Handlers *handlers.Server
	ticker   *broadcast.Ticker

	mu    sync.Mutex
	ln    net.Listener
	conns map[string]*session.Connection
	wg    sync.WaitGroup
}

func New(cfg Config) *Server {
	cfg.applyDefaults()
	w := world.New()
	r := session.NewRegistry()
	bc := broadcast.New()
	return &Server{
		cfg:      cfg,
		log:      logger.Named("vfvserver"),
		World:    w,
		Registry: r,
		Handlers: handlers.New(w, r, bc),
		ticker:   broadcast.NewTicker(w, r, bc, cfg.TickInterval, cfg.LockOwnerTimeout),
		conns:    make(map[string]*session.Connection),
	}
}

// Addr returns the bound listener address, or nil before Run has listened.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run listens on cfg.ListenAddr and serves until ctx is cancelled, then
// closes every open connection and blocks until their read/write loops and
// the tick loop have all exited.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.ticker.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				break
			}
			s.log.Warn("accept error", zap.Error(err))
			continue
		}
		s.handleAccept(ctx, nc)
	}

	s.mu.Lock()
	conns := make([]*session.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}

	s.wg.Wait()
	s.log.Info("stopped")
	return nil
}

// handleAccept registers a newly-accepted connection and launches its
// write loop and read loop, each tracked so Run can wait for them on
// shutdown. Connection IDs are UUIDs (§10.6) so they stay meaningful in
// audit log lines and metrics labels across process restarts, unlike a
// counter that resets to 1.
func (s *Server) handleAccept(ctx context.Context, nc net.Conn) {
	id := uuid.NewString()
	c := session.NewConnection(id, nc)
	s.Registry.Add(c)

	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
	metrics.ConnectionsActive.Inc()
	s.log.Info("connection accepted", zap.String("conn_id", id), zap.String("remote", nc.RemoteAddr().String()))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := c.WriteLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Debug("write loop exited", zap.String("conn_id", id), zap.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		s.readLoop(c)
	}()
}

// readLoop feeds raw bytes to a per-connection proto.Parser and dispatches
// every completed message, closing the connection on any ProtocolError (§7)
// or transport-level read failure.
func (s *Server) readLoop(c *session.Connection) {
	defer s.closeConn(c)

	parser := proto.NewParser()
	buf := bufpool.Get(readBufferSize)
	defer bufpool.Put(buf)
	for {
		n, readErr := c.Net.Read(buf)
		if n > 0 {
			msgs, parseErr := parser.Feed(buf[:n])
			for _, m := range msgs {
				if err := s.Handlers.Dispatch(c, m); err != nil {
					if protoerr.IsProtocolError(err) {
						s.log.Warn("closing connection on protocol error",
							zap.String("conn_id", c.ID), zap.Error(err))
						metrics.ProtocolErrorsTotal.WithLabelValues("dispatch").Inc()
						return
					}
					s.log.Warn("handler error", zap.String("conn_id", c.ID), zap.Error(err))
				}
			}
			if parseErr != nil {
				s.log.Warn("closing connection on frame error",
					zap.String("conn_id", c.ID), zap.Error(parseErr))
				metrics.ProtocolErrorsTotal.WithLabelValues("frame").Inc()
				return
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, net.ErrClosed) {
				s.log.Debug("read error", zap.String("conn_id", c.ID), zap.Error(readErr))
			}
			return
		}
	}
}

// closeConn runs once per connection regardless of which side closed it
// first: it tears down the socket, drops the connection-table entry, and
// runs the disconnect sweep / anchor re-election (§4.4, §4.5).
func (s *Server) closeConn(c *session.Connection) {
	_ = c.Close()
	s.mu.Lock()
	delete(s.conns, c.ID)
	s.mu.Unlock()
	metrics.ConnectionsActive.Dec()
	s.Handlers.HandleDisconnect(c)
}
