package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/kit"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/search"
	"github.com/hazyhaar/rebeauty/pkg/store"
)

// Shared request/response types used by both HTTP and MCP transports.

const maxQueryLen = 100

type searchReq struct {
	Query search.Query
}

type lookupReq struct {
	ID string
}

type lookupResp struct {
	Customer search.Customer `json:"customer"`
	FullName string          `json:"full_name"`
}

// errNotFound marks a lookup miss so transports can map it to 404.
var errNotFound = errors.New("customer not found")

type encodeNoteReq struct {
	Profile note.Profile
}

type encodeNoteResp struct {
	Note string `json:"note"`
}

type decodeNoteReq struct {
	Note string
}

type decodeNoteResp struct {
	Fields  map[string]string `json:"fields"`
	Profile note.Profile      `json:"profile"`
}

type healthResponse struct {
	Status    string     `json:"status"`
	Customers int        `json:"customers"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	SyncState string     `json:"sync_status,omitempty"`
	SyncError string     `json:"sync_error,omitempty"`
}

// SyncReporter exposes the cache's sync bookkeeping.
type SyncReporter interface {
	LastSync(name string) (*store.SyncState, error)
}

func searchEndpoint(ix *search.Index) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		q := req.Query
		for _, s := range []string{q.ByID, q.ByName, q.ByPhone} {
			if len([]rune(s)) > maxQueryLen {
				return nil, fmt.Errorf("query too long (max %d characters)", maxQueryLen)
			}
		}
		return ix.Search(q), nil
	}
}

func lookupEndpoint(ix *search.Index) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*lookupReq)
		c, ok := ix.Lookup(req.ID)
		if !ok {
			return nil, errNotFound
		}
		return lookupResp{Customer: c, FullName: c.FullName()}, nil
	}
}

func encodeNoteEndpoint() kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*encodeNoteReq)
		return encodeNoteResp{Note: note.Encode(req.Profile)}, nil
	}
}

func decodeNoteEndpoint() kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*decodeNoteReq)
		fields := note.Decode(req.Note)
		return decodeNoteResp{Fields: fields, Profile: note.FromFields(fields)}, nil
	}
}

func healthEndpoint(ix *search.Index, sync SyncReporter) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		resp := healthResponse{Status: "ok", Customers: ix.Len()}
		if t := ix.LoadedAt(); !t.IsZero() {
			resp.LoadedAt = &t
		}
		if sync == nil {
			return resp, nil
		}
		st, err := sync.LastSync(store.SyncCustomers)
		if err != nil {
			return nil, err
		}
		if st != nil {
			resp.SyncState = st.LastStatus
			if st.LastSync != nil {
				t := time.Unix(*st.LastSync, 0).UTC()
				resp.LastSync = &t
			}
			if st.LastError != nil {
				resp.SyncError = *st.LastError
				resp.Status = "degraded"
			}
		}
		return resp, nil
	}
}
