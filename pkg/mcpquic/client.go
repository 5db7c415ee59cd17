package mcpquic

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quic-go/quic-go"
)

// Client calls console tools over MCP-over-QUIC.
type Client struct {
	addr      string
	version   string
	token     string
	tlsCfg    *tls.Config
	conn      *quic.Conn
	stream    *quic.Stream
	mcpClient *client.Client
}

// NewClient creates a client for addr presenting token in the preamble. A
// nil tlsCfg trusts any certificate, matching the console's self-signed
// development default.
func NewClient(addr, version, token string, tlsCfg *tls.Config) *Client {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(true)
	}
	return &Client{addr: addr, version: version, token: token, tlsCfg: tlsCfg}
}

// Connect dials, sends the preamble and performs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := quic.DialAddr(ctx, c.addr, c.tlsCfg, ProductionQUICConfig())
	if err != nil {
		return fmt.Errorf("quic dial %s: %w", c.addr, err)
	}
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
		conn.CloseWithError(CodeBadALPN, "bad ALPN")
		return fmt.Errorf("%w: got %q", ErrUnsupportedALPN, alpn)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(CodeProtocol, "stream open failed")
		return fmt.Errorf("open stream: %w", err)
	}
	if err := WritePreamble(stream, c.token); err != nil {
		stream.Close()
		conn.CloseWithError(CodeProtocol, "preamble failed")
		return err
	}
	c.conn, c.stream = conn, stream

	mc := client.NewClient(transport.NewIO(stream, streamWriter{stream}, nopReadCloser{}))
	if err := mc.Start(ctx); err != nil {
		c.closeTransport()
		return fmt.Errorf("mcp start: %w", err)
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "rebeauty-cli", Version: c.version}

	initCtx, cancel := context.WithTimeout(ctx, DefaultHandshakeTimeout)
	defer cancel()
	if _, err := mc.Initialize(initCtx, init); err != nil {
		c.closeTransport()
		return fmt.Errorf("mcp initialize: %w", err)
	}
	c.mcpClient = mc
	return nil
}

// ListTools lists the console tools.
func (c *Client) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	if c.mcpClient == nil {
		return nil, ErrNotConnected
	}
	return c.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
}

// CallTool invokes a tool and returns the raw result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if c.mcpClient == nil {
		return nil, ErrNotConnected
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.mcpClient.CallTool(ctx, req)
}

// CallJSON invokes a tool and decodes its JSON text answer into out. Tool
// errors are returned as Go errors.
func (c *Client) CallJSON(ctx context.Context, name string, args map[string]any, out any) error {
	res, err := c.CallTool(ctx, name, args)
	if err != nil {
		return err
	}
	text := resultText(res)
	if res.IsError {
		return fmt.Errorf("tool %s: %s", name, text)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("tool %s: decode: %w", name, err)
	}
	return nil
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// Ping checks the session is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c.mcpClient == nil {
		return ErrNotConnected
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.mcpClient.Ping(pctx)
}

// Close ends the session and the connection.
func (c *Client) Close() error {
	var err error
	if c.mcpClient != nil {
		err = c.mcpClient.Close()
	}
	return errors.Join(err, c.closeTransport())
}

func (c *Client) closeTransport() error {
	var err error
	if c.stream != nil {
		err = c.stream.Close()
	}
	if c.conn != nil {
		c.conn.CloseWithError(CodeClosed, "client closing")
	}
	return err
}

type streamWriter struct{ stream *quic.Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.stream.Write(p) }
func (w streamWriter) Close() error                { return w.stream.Close() }

type nopReadCloser struct{}

func (nopReadCloser) Read([]byte) (int, error) { return 0, io.EOF }
func (nopReadCloser) Close() error             { return nil }
