package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/hazyhaar/rebeauty/pkg/kit"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/search"
)

// Deps are the components the console API serves from.
type Deps struct {
	Index  *search.Index
	Sync   SyncReporter
	Logger *slog.Logger

	// Token, when set, must be presented as a bearer token on the customer
	// and note routes. Health stays open.
	Token string
	// AllowedOrigins lists the browser origins granted CORS access.
	AllowedOrigins []string
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// NewRouter returns an http.Handler with all console API routes.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()
	logger := deps.logger()
	h := &handler{
		search:     kit.Logging(logger, "search_customers")(searchEndpoint(deps.Index)),
		lookup:     kit.Logging(logger, "get_customer")(lookupEndpoint(deps.Index)),
		encodeNote: kit.Logging(logger, "encode_note")(encodeNoteEndpoint()),
		decodeNote: kit.Logging(logger, "decode_note")(decodeNoteEndpoint()),
		health:     healthEndpoint(deps.Index, deps.Sync),
	}

	auth := requireToken(deps.Token)
	mux.Handle("GET /v1/customers/search", auth(h.handleSearch))
	mux.Handle("GET /v1/customers/{id}", auth(h.handleLookup))
	mux.HandleFunc("GET /v1/notes/encode", methodNotAllowed)
	mux.Handle("POST /v1/notes/encode", auth(h.handleEncodeNote))
	mux.HandleFunc("GET /v1/notes/decode", methodNotAllowed)
	mux.Handle("POST /v1/notes/decode", auth(h.handleDecodeNote))
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return kit.RequestIDHandler(cors(deps.AllowedOrigins, mux))
}

type handler struct {
	search     kit.Endpoint
	lookup     kit.Endpoint
	encodeNote kit.Endpoint
	decodeNote kit.Endpoint
	health     kit.Endpoint
}

// --- search ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.search(r.Context(), &searchReq{Query: search.Query{
		ByID:    q.Get("id"),
		ByName:  q.Get("name"),
		ByPhone: q.Get("phone"),
	}})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.lookup(r.Context(), &lookupReq{ID: r.PathValue("id")})
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- notes ---

func (h *handler) handleEncodeNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var p note.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.encodeNote(r.Context(), &encodeNoteReq{Profile: p})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type httpDecodeRequest struct {
	Note string `json:"note"`
}

func (h *handler) handleDecodeNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req httpDecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.decodeNote(r.Context(), &decodeNoteReq{Note: req.Note})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.health(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requireToken rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func requireToken(token string) func(http.HandlerFunc) http.Handler {
	return func(next http.HandlerFunc) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="rebeauty"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r)
		})
	}
}

// cors grants access to the listed origins only. Preflights from other
// origins get no Allow-Origin header and the browser blocks them.
func cors(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Origin")
		if origin := r.Header.Get("Origin"); origin != "" && slices.Contains(origins, origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
			h.Set("Access-Control-Expose-Headers", "X-Request-Id")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
