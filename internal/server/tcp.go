package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// MaxPortProbes bounds how many consecutive ports Listen tries when the
// requested one is taken.
const MaxPortProbes = 16

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts TCP connections and hands each one to a goroutine running
// the connection handler.
type Server struct {
	handler func(conn net.Conn)
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

func New(handler func(conn net.Conn), logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds host:port. If the port is in use the next ones are tried,
// up to MaxPortProbes. Port 0 picks a free port.
func (s *Server) Listen(host string, port int) (net.Addr, error) {
	var ln net.Listener
	var err error

	for i := 0; i < MaxPortProbes; i++ {
		addr := net.JoinHostPort(host, fmt.Sprint(port))
		ln, err = net.Listen("tcp", addr)
		if err == nil {
			break
		}
		if port != 0 && errors.Is(err, syscall.EADDRINUSE) {
			s.logger.Warn("port in use, trying the next one", zap.Int("port", port))
			port++
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("server listening", zap.Stringer("addr", ln.Addr()))
	return ln.Addr(), nil
}

// Serve runs the accept loop until ctx is cancelled, then closes every open
// connection and waits for their handlers to return.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	// When ctx is cancelled, close listener
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var delay time.Duration // backoff after a failed accept

	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				s.closeConns()
				s.wg.Wait()
				s.logger.Info("server stopped")
				return nil
			default:
			}

			delay = nextAcceptDelay(delay)
			s.logger.Warn("error accepting connection",
				zap.Error(err),
				zap.Duration("retry_in", delay),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handler(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.Close()
	}
}

// nextAcceptDelay doubles the previous delay from 5ms up to one second.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	if prev *= 2; prev > maxAcceptDelay {
		return maxAcceptDelay
	}
	return prev
}
