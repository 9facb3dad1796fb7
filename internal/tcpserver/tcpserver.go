// Package tcpserver implements the TCP accept loop that is explicitly
// out of scope in the wire protocol's core spec but has to exist for a
// runnable server: bind a listener, rate-limit and cap new connections,
// and hand each accepted socket to internal/connloop.
package tcpserver

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/time/rate"

	"github.com/wirekv/wirekv/internal/connloop"
	"github.com/wirekv/wirekv/internal/kvlog"
	"github.com/wirekv/wirekv/internal/metrics"
	"github.com/wirekv/wirekv/internal/store"
)

// Server owns the listening socket and the connection-admission policy
// (rate limit + max concurrent connections).
type Server struct {
	addr           string
	store          *store.Store
	metrics        *metrics.Registry
	limiter        *rate.Limiter
	maxConnections int
}

// New builds a Server bound to addr once Run is called. maxConnections
// <= 0 disables the concurrent-connection cap.
func New(addr string, st *store.Store, m *metrics.Registry, maxConnections int) *Server {
	return &Server{
		addr:    addr,
		store:   st,
		metrics: m,
		// 1000 accepts/sec sustained, bursts up to 100: generous enough
		// not to bite legitimate pipelined clients, tight enough to blunt
		// a connection flood.
		limiter:        rate.NewLimiter(rate.Limit(1000), 100),
		maxConnections: maxConnections,
	}
}

// Run blocks accepting connections until ctx is cancelled or the
// listener fails to bind. Each accepted connection is served in its own
// goroutine; Run itself returns once the listener is closed.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcpserver: listen on %s: %w", s.addr, err)
	}
	kvlog.Infof("tcpserver: listening on %s", s.addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var sem chan struct{}
	if s.maxConnections > 0 {
		sem = make(chan struct{}, s.maxConnections)
	}

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			kvlog.Warnf("tcpserver: accept error: %v", err)
			continue
		}

		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				conn.Close()
				return nil
			}
		}

		go func() {
			connloop.Handle(conn, s.store, s.metrics)
			if sem != nil {
				<-sem
			}
		}()
	}
}
