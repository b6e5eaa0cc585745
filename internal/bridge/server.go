// Package bridge implements the embedded control-plane server: a raw-socket
// HTTP/1.1 front end mediating exclusive access to the simulation host's
// device controller.
package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simforge/simbridge/internal/httpwire"
	"github.com/simforge/simbridge/internal/station"
)

const (
	DefaultAddr         = "127.0.0.1:9847"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	readChunkSize = 4096
)

// Config holds the server's network settings.
type Config struct {
	// Addr is the listen address. The service is loopback-only; binding to
	// anything else is the operator's responsibility to justify.
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// Server owns the listening socket and all per-request state. Each instance
// is independent, so tests can run several against separate mock hosts.
type Server struct {
	cfg    Config
	host   station.Host
	routes *router
	logger *slog.Logger

	ln     net.Listener
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New builds a server around host. logger may be nil.
func New(cfg Config, host station.Host, logger *slog.Logger) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:    cfg,
		host:   host,
		routes: newRouter(),
		logger: logger,
	}
	s.routes.add("GET", "/health", s.handleHealth)
	s.routes.add("GET", "/status", s.handleStatus)
	s.routes.add("GET", "/joints", s.handleJoints)
	s.routes.add("POST", "/simulation", s.handleSimulation)
	s.routes.add("POST", "/rapid/upload", s.handleRapidUpload)
	s.routes.add("POST", "/rapid/execute", s.handleRapidExecute)
	s.routes.add("GET", "/rapid/status", s.handleRapidStatus)
	s.routes.add("GET", "/rapid/errors", s.handleRapidErrors)
	return s
}

// Start binds the listening socket and launches the accept loop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("control plane listening", "addr", ln.Addr().String())
	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Close stops accepting connections and waits for in-flight workers to
// finish. Workers are never forcibly cancelled.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				s.logger.Info("accept loop stopped")
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn runs the full pipeline for one connection: frame, parse, route,
// encode, close. Exactly one request per connection.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	fr := httpwire.NewFrameReader()
	buf := make([]byte, readChunkSize)
	for !fr.Complete() {
		n, err := conn.Read(buf)
		if n > 0 && fr.Feed(buf[:n]) {
			break
		}
		if err != nil {
			break
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))

	header, body, err := fr.Frame()
	if err != nil {
		s.writeResult(conn, errBadRequest("IncompleteRequest",
			"Connection ended before a complete HTTP request was received.").result())
		return
	}
	req, err := httpwire.ParseRequest(header, body)
	if err != nil {
		s.writeResult(conn, errBadRequest("MalformedRequest",
			"Could not parse the HTTP request line.").result())
		return
	}

	ctx := context.Background()
	res := s.dispatch(ctx, req)
	s.logger.Debug("request handled",
		"method", req.Method,
		"path", req.Path,
		"status", res.status,
	)
	s.writeResult(conn, res)
}

// dispatch routes the request, converting a handler panic into a 500 so no
// fault escapes to the connection layer.
func (s *Server) dispatch(ctx context.Context, req *httpwire.Request) (res result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "path", req.Path, "panic", r)
			res = errInternal("Internal server error.").result()
		}
	}()
	return s.routes.dispatch(ctx, req)
}

func (s *Server) writeResult(conn net.Conn, res result) {
	if err := httpwire.WriteResponse(conn, res.status, res.payload, res.header); err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			s.logger.Warn("response write failed", "error", err)
		}
	}
}
