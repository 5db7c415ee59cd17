package mcpquic

import (
	"errors"

	"github.com/quic-go/quic-go"
)

// Close codes sent to the peer. The chassis shares the connection table so
// a client sees one numbering whichever layer refused it.
const (
	CodeClosed          quic.ApplicationErrorCode = 0x00
	CodeBadALPN         quic.ApplicationErrorCode = 0x01
	CodeProtocol        quic.ApplicationErrorCode = 0x03
	CodeUnauthorized    quic.ApplicationErrorCode = 0x04
	CodeMCPDisabled     quic.ApplicationErrorCode = 0x10
	CodeUnknownProtocol quic.ApplicationErrorCode = 0x11
)

// Stream reset codes.
const (
	StreamBadPreamble quic.StreamErrorCode = 0x02
	StreamTooLarge    quic.StreamErrorCode = 0x03
)

var (
	ErrBadPreamble     = errors.New("mcpquic: stream does not start with " + MagicBytesMCP)
	ErrUnsupportedALPN = errors.New("mcpquic: server did not accept " + ALPNProtocolMCP)
	ErrMessageTooLarge = errors.New("mcpquic: message exceeds size limit")
	ErrNotConnected    = errors.New("mcpquic: client not connected")
	ErrUnauthorized    = errors.New("mcpquic: access token rejected")
)
