package kit

import "context"

type ctxKey int

const (
	transportKey ctxKey = iota
	requestIDKey
	staffKey
)

// Transport names recorded on the request context.
const (
	TransportHTTP    = "http"
	TransportMCP     = "mcp"
	TransportMCPQUIC = "mcp_quic"
)

func lookup(ctx context.Context, k ctxKey) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// WithTransport tags ctx with the transport that carried the request.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, transportKey, t)
}

// GetTransport defaults to TransportHTTP for untagged contexts.
func GetTransport(ctx context.Context) string {
	if t := lookup(ctx, transportKey); t != "" {
		return t
	}
	return TransportHTTP
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string { return lookup(ctx, requestIDKey) }

// WithStaff records which staff member the console acts for.
func WithStaff(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, staffKey, name)
}

func GetStaff(ctx context.Context) string { return lookup(ctx, staffKey) }
