package mcpquic

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

func TestPreamble(t *testing.T) {
	tests := []struct {
		name  string
		token string
		wire  string
	}{
		{"no token", "", "RBM1\x00\x00"},
		{"token", "abc", "RBM1\x00\x03abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePreamble(&buf, tt.token); err != nil {
				t.Fatalf("WritePreamble: %v", err)
			}
			if buf.String() != tt.wire {
				t.Fatalf("preamble = %q, want %q", buf.String(), tt.wire)
			}
			got, err := ReadPreamble(&buf)
			if err != nil {
				t.Fatalf("ReadPreamble: %v", err)
			}
			if got != tt.token {
				t.Fatalf("token = %q, want %q", got, tt.token)
			}
		})
	}
}

func TestReadPreamble_Rejects(t *testing.T) {
	if _, err := ReadPreamble(strings.NewReader("MCP1\x00\x00")); !errors.Is(err, ErrBadPreamble) {
		t.Fatalf("expected ErrBadPreamble, got %v", err)
	}
	if _, err := ReadPreamble(strings.NewReader("RB")); err == nil {
		t.Fatal("expected error on short read")
	}
	if _, err := ReadPreamble(strings.NewReader("RBM1\x00\x05ab")); err == nil {
		t.Fatal("expected error on truncated token")
	}
	if _, err := ReadPreamble(strings.NewReader("RBM1\xff\xff")); !errors.Is(err, ErrBadPreamble) {
		t.Fatalf("expected ErrBadPreamble for oversized token, got %v", err)
	}
	if err := WritePreamble(io.Discard, strings.Repeat("x", MaxTokenSize+1)); err == nil {
		t.Fatal("expected error for oversized token")
	}
}

func TestCheckToken(t *testing.T) {
	tests := []struct {
		want, got string
		ok        bool
	}{
		{"", "", true},
		{"", "anything", true},
		{"s3cret", "s3cret", true},
		{"s3cret", "", false},
		{"s3cret", "s3cre", false},
	}
	for _, tt := range tests {
		if got := checkToken(tt.want, tt.got); got != tt.ok {
			t.Errorf("checkToken(%q, %q) = %v, want %v", tt.want, tt.got, got, tt.ok)
		}
	}
}

func TestClientTLSConfig(t *testing.T) {
	cfg := ClientTLSConfig(false)
	if len(cfg.NextProtos) != 1 || cfg.NextProtos[0] != ALPNProtocolMCP {
		t.Fatalf("NextProtos = %v", cfg.NextProtos)
	}
	if cfg.InsecureSkipVerify {
		t.Fatal("verification should be on")
	}
}

func testHandler() *Handler {
	srv := server.NewMCPServer("test", "0")
	return NewHandler(srv, slog.New(slog.NewTextHandler(io.Discard, nil)), "")
}

func TestServeStream(t *testing.T) {
	h := testHandler()
	var out bytes.Buffer
	sess := newSession("s1", &out)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n") + "\n"

	if err := h.serveStream(context.Background(), strings.NewReader(in), sess); err != nil {
		t.Fatalf("serveStream: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `"id":1`) || !strings.Contains(lines[1], `"id":2`) {
		t.Fatalf("unexpected responses: %q", lines)
	}
}

func TestServeStream_TooLarge(t *testing.T) {
	h := testHandler()
	sess := newSession("s2", io.Discard)
	big := strings.Repeat("x", MaxMessageSize+1) + "\n"

	err := h.serveStream(context.Background(), strings.NewReader(big), sess)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestSessionState(t *testing.T) {
	s := newSession("s3", io.Discard)
	if s.SessionID() != "s3" || s.Initialized() {
		t.Fatal("fresh session state wrong")
	}
	s.Initialize()
	if !s.Initialized() {
		t.Fatal("Initialize not recorded")
	}
}
