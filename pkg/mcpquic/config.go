package mcpquic

import (
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	ALPNProtocolMCP         = "rebeauty-mcp-v1"
	MagicBytesMCP           = "RBM1"
	MaxMessageSize          = 4 * 1024 * 1024 // one JSON-RPC line
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultIdleTimeout      = 5 * time.Minute
	DefaultKeepAlive        = 30 * time.Second
)

// ProductionQUICConfig is shared by the chassis listener and the client.
func ProductionQUICConfig() *quic.Config {
	return &quic.Config{
		HandshakeIdleTimeout:       DefaultHandshakeTimeout,
		MaxStreamReceiveWindow:     MaxMessageSize * 2,
		MaxConnectionReceiveWindow: MaxMessageSize * 8,
		MaxIdleTimeout:             DefaultIdleTimeout,
		KeepAlivePeriod:            DefaultKeepAlive,
	}
}

// ClientTLSConfig offers only the MCP ALPN. insecure skips certificate
// verification, for consoles running on a self-signed certificate.
func ClientTLSConfig(insecure bool) *tls.Config {
	return &tls.Config{
		NextProtos:         []string{ALPNProtocolMCP},
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecure,
	}
}
