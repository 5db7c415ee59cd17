package mcpquic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hazyhaar/rebeauty/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
)

// Handler serves MCP sessions on QUIC connections the chassis hands over
// after ALPN demuxing. It owns no listener.
type Handler struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
	token     string
}

// NewHandler creates an MCP connection handler. A non-empty token must be
// presented in each stream's preamble.
func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger, token string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcpServer: mcpSrv, logger: logger, token: token}
}

// ServeConn runs one MCP session on the first stream of conn.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Warn("MCP accept stream failed", "remote", remote, "error", err)
		conn.CloseWithError(CodeProtocol, "stream accept failed")
		return
	}
	token, err := ReadPreamble(stream)
	if err != nil {
		h.logger.Warn("MCP preamble rejected", "remote", remote, "error", err)
		stream.CancelWrite(StreamBadPreamble)
		stream.CancelRead(StreamBadPreamble)
		conn.CloseWithError(CodeProtocol, "bad preamble")
		return
	}
	if !checkToken(h.token, token) {
		h.logger.Warn("MCP access token rejected", "remote", remote)
		stream.CancelWrite(StreamBadPreamble)
		stream.CancelRead(StreamBadPreamble)
		conn.CloseWithError(CodeUnauthorized, "unauthorized")
		return
	}

	sess := newSession("quic_"+uuid.NewString(), stream)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("MCP session register failed", "session", sess.id, "error", err)
		stream.Close()
		return
	}
	defer h.mcpServer.UnregisterSession(ctx, sess.id)

	ctx, cancel := context.WithCancel(kit.WithTransport(ctx, kit.TransportMCPQUIC))
	defer cancel()
	ctx = h.mcpServer.WithContext(ctx, sess)
	go sess.forwardNotifications(ctx)

	h.logger.Info("MCP session started", "session", sess.id, "remote", remote)
	err = h.serveStream(ctx, stream, sess)
	switch {
	case errors.Is(err, ErrMessageTooLarge):
		stream.CancelRead(StreamTooLarge)
		conn.CloseWithError(CodeProtocol, "message too large")
	case err != nil && ctx.Err() == nil:
		h.logger.Warn("MCP session error", "session", sess.id, "error", err)
	}
	stream.Close()
	h.logger.Info("MCP session ended", "session", sess.id, "remote", remote)
}

// serveStream reads newline-delimited JSON-RPC messages from r and writes
// each response through sess until r is exhausted.
func (h *Handler) serveStream(ctx context.Context, r io.Reader, sess *session) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		msgCtx := kit.WithRequestID(ctx, kit.NewRequestID())
		response := h.mcpServer.HandleMessage(msgCtx, json.RawMessage(line))
		if response == nil {
			continue
		}
		if err := sess.writeJSON(response); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return ErrMessageTooLarge
		}
		return err
	}
	return nil
}

// session implements server.ClientSession for one QUIC stream. Responses
// and notifications share the stream, so writes are serialized.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool

	mu sync.Mutex
	w  io.Writer
}

func newSession(id string, w io.Writer) *session {
	return &session{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(data)
	return err
}

func (s *session) forwardNotifications(ctx context.Context) {
	for {
		select {
		case n := <-s.notifications:
			if err := s.writeJSON(n); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
