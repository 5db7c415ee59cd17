package mcpquic

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxTokenSize bounds the access token carried in the preamble.
const MaxTokenSize = 4096

var magic = []byte(MagicBytesMCP)

// WritePreamble is the first thing a client writes on a fresh stream: the
// magic bytes, then the access token prefixed by its big-endian uint16
// length. An empty token is sent as a zero length.
func WritePreamble(w io.Writer, token string) error {
	if len(token) > MaxTokenSize {
		return fmt.Errorf("write preamble: token exceeds %d bytes", MaxTokenSize)
	}
	buf := make([]byte, 0, len(magic)+2+len(token))
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(token)))
	buf = append(buf, token...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}
	return nil
}

// ReadPreamble consumes the stream preamble, rejecting peers that
// negotiated our ALPN but speak something else, and returns the token.
func ReadPreamble(r io.Reader) (string, error) {
	head := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, head); err != nil {
		return "", fmt.Errorf("read preamble: %w", err)
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return "", fmt.Errorf("%w: got %q", ErrBadPreamble, head[:len(magic)])
	}
	n := int(binary.BigEndian.Uint16(head[len(magic):]))
	if n > MaxTokenSize {
		return "", fmt.Errorf("%w: token length %d", ErrBadPreamble, n)
	}
	token := make([]byte, n)
	if _, err := io.ReadFull(r, token); err != nil {
		return "", fmt.Errorf("read preamble token: %w", err)
	}
	return string(token), nil
}

// checkToken compares in constant time. An empty want accepts anything.
func checkToken(want, got string) bool {
	return want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
