package kit

import (
	"net/http"
	"regexp"
)

// RequestIDHeader carries the request id on HTTP requests and responses.
const RequestIDHeader = "X-Request-Id"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestIDHandler attaches a request id to every HTTP request context,
// reusing a well-formed incoming X-Request-Id, and echoes it back.
func RequestIDHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := WithTransport(WithRequestID(r.Context(), id), TransportHTTP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
