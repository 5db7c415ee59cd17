// Package chassis runs the console on one port with two transports:
//
//   - TCP: HTTP/1.1 and HTTP/2 over TLS for browsers and curl
//   - UDP: QUIC, demuxed by ALPN
//     "h3"              -> HTTP/3, same handler as TCP
//     "rebeauty-mcp-v1" -> MCP JSON-RPC over a QUIC stream
//
// HTTP responses advertise HTTP/3 with Alt-Svc. Without cert files a
// self-signed ECDSA P-256 certificate is generated at startup.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/hazyhaar/rebeauty/pkg/mcpquic"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

const alpnHTTP3 = "h3"

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string            // listen address, TCP and UDP share the port
	TLS       *tls.Config       // nil: load CertFile/KeyFile or self-sign
	CertFile  string
	KeyFile   string
	Handler   http.Handler      // console HTTP API
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	MCPToken  string            // required in the MCP stream preamble when set
	Logger    *slog.Logger
}

// Server is the running chassis.
type Server struct {
	addr       string
	logger     *slog.Logger
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *mcpquic.Handler

	mu        sync.Mutex
	tcpServer *http.Server
	h3Server  *http3.Server
	quicLn    *quic.Listener
}

// New prepares a server; nothing listens until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil HTTP handler")
	}

	tlsCfg, err := resolveTLS(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvc(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger, cfg.MCPToken)
	}
	return s, nil
}

func resolveTLS(cfg Config) (*tls.Config, error) {
	if cfg.TLS != nil {
		return cfg.TLS, nil
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsCfg, err := ProductionTLSConfig(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert: %w", err)
		}
		cfg.Logger.Info("TLS: certificate loaded", "cert", cfg.CertFile)
		return tlsCfg, nil
	}
	tlsCfg, err := DevelopmentTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("generate dev TLS: %w", err)
	}
	cfg.Logger.Warn("TLS: using a self-signed development certificate")
	return tlsCfg, nil
}

// securityHeaders adds the headers an API-only origin needs.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the same port.
func altSvc(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		port = "8443"
	}
	value := fmt.Sprintf(`%s=":%s"; ma=86400`, alpnHTTP3, port)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", value)
		next.ServeHTTP(w, r)
	})
}

// Start opens both listeners and serves until ctx is cancelled or a
// listener fails. Call Stop afterwards to drain connections.
func (s *Server) Start(ctx context.Context) error {
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}

	ln, err := quic.ListenAddr(s.addr, s.tlsCfg, mcpquic.ProductionQUICConfig())
	if err != nil {
		return fmt.Errorf("QUIC listen: %w", err)
	}
	tcpLn, err := tls.Listen("tcp", s.addr, tcpTLS)
	if err != nil {
		ln.Close()
		return fmt.Errorf("TCP listen: %w", err)
	}

	s.mu.Lock()
	s.quicLn = ln
	s.tcpServer = &http.Server{Addr: s.addr, Handler: s.handler, TLSConfig: tcpTLS}
	s.h3Server = &http3.Server{Handler: s.handler}
	tcpServer := s.tcpServer
	s.mu.Unlock()

	s.logger.Info("chassis started", "addr", s.addr, "mcp", s.mcpHandler != nil)

	errCh := make(chan error, 2)
	go func() {
		if err := tcpServer.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("TCP: %w", err)
		}
	}()
	go func() {
		if err := s.acceptQUIC(ctx, ln); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("QUIC accept: %w", err)
		}
		s.dispatch(ctx, conn)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *quic.Conn) {
	switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
	case alpnHTTP3:
		go func() {
			if err := s.h3Server.ServeQUICConn(conn); err != nil {
				s.logger.Debug("HTTP/3 conn done", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case mcpquic.ALPNProtocolMCP:
		if s.mcpHandler == nil {
			conn.CloseWithError(mcpquic.CodeMCPDisabled, "MCP not enabled")
			return
		}
		go s.mcpHandler.ServeConn(ctx, conn)
	default:
		s.logger.Warn("unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(mcpquic.CodeUnknownProtocol, "unsupported ALPN: "+alpn)
	}
}

// Stop shuts down both transports.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpServer != nil {
		errs = append(errs, s.tcpServer.Shutdown(ctx))
	}
	if s.h3Server != nil {
		errs = append(errs, s.h3Server.Close())
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}
