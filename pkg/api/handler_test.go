package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hazyhaar/rebeauty/pkg/kit"
	"github.com/hazyhaar/rebeauty/pkg/search"
	"github.com/hazyhaar/rebeauty/pkg/store"
)

type fakeSync struct {
	state *store.SyncState
	err   error
}

func (f fakeSync) LastSync(string) (*store.SyncState, error) { return f.state, f.err }

func testIndex() *search.Index {
	ix := search.NewIndex("kana")
	ix.Replace([]search.Customer{
		search.NewCustomer("1", "山田 花子", "090-1111-2222"),
		search.NewCustomer("2", "ヤマモト ユキ", "080-3333-4444"),
		search.NewCustomer("12", "佐藤舞", "03-1234-5678"),
	})
	return ix
}

func testRouter(sync SyncReporter) http.Handler {
	return NewRouter(Deps{
		Index:  testIndex(),
		Sync:   sync,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	h := testRouter(nil)

	tests := []struct {
		name    string
		target  string
		wantIDs []string
	}{
		{"hiragana query matches katakana name", "/v1/customers/search?name=" + url.QueryEscape("やまもと"), []string{"2"}},
		{"id substring", "/v1/customers/search?id=1", []string{"1", "12"}},
		{"phone", "/v1/customers/search?phone=1234", []string{"12"}},
		{"or across fields", "/v1/customers/search?id=2&phone=090", []string{"1", "2", "12"}},
		{"empty query", "/v1/customers/search", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d: %s", rec.Code, rec.Body)
			}
			var res search.SearchResult
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := make([]string, 0, len(res.Hits))
			for _, hit := range res.Hits {
				got = append(got, hit.Customer.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			if res.Total != len(tt.wantIDs) {
				t.Fatalf("total = %d", res.Total)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	h := testRouter(nil)

	rec := do(t, h, http.MethodGet, "/v1/customers/12", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp lookupResp
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Customer.ID != "12" || resp.FullName != "佐藤 舞" {
		t.Errorf("lookup = %+v", resp)
	}

	if rec := do(t, h, http.MethodGet, "/v1/customers/999", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing customer: status %d", rec.Code)
	}
	// The literal search route wins over the ID pattern.
	if rec := do(t, h, http.MethodGet, "/v1/customers/search?id=12", ""); rec.Code != http.StatusOK {
		t.Errorf("search: status %d", rec.Code)
	}
}

func TestSearch_Highlight(t *testing.T) {
	rec := do(t, testRouter(nil), http.MethodGet, "/v1/customers/search?name="+url.QueryEscape("花子"), "")
	var res search.SearchResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if len(res.Hits) != 1 {
		t.Fatalf("hits = %d", len(res.Hits))
	}
	segs := res.Hits[0].Name
	if len(segs) != 2 || segs[0].Text != "山田 " || segs[0].Match || segs[1].Text != "花子" || !segs[1].Match {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestSearch_TooLong(t *testing.T) {
	rec := do(t, testRouter(nil), http.MethodGet, "/v1/customers/search?name="+strings.Repeat("a", 101), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestEncodeDecodeNote(t *testing.T) {
	h := testRouter(nil)

	rec := do(t, h, http.MethodPost, "/v1/notes/encode", `{"skin_type":"乾燥肌","skin_concerns":["シミ","くすみ"],"memo":"紹介"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("encode status %d: %s", rec.Code, rec.Body)
	}
	var enc encodeNoteResp
	json.Unmarshal(rec.Body.Bytes(), &enc)
	want := "肌タイプ: 乾燥肌 / 肌悩み: シミ, くすみ / メモ: 紹介"
	if enc.Note != want {
		t.Fatalf("note = %q, want %q", enc.Note, want)
	}

	body, _ := json.Marshal(httpDecodeRequest{Note: enc.Note})
	rec = do(t, h, http.MethodPost, "/v1/notes/decode", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("decode status %d", rec.Code)
	}
	var dec decodeNoteResp
	json.Unmarshal(rec.Body.Bytes(), &dec)
	if dec.Fields["肌タイプ"] != "乾燥肌" || len(dec.Profile.SkinConcerns) != 2 || dec.Profile.Memo != "紹介" {
		t.Fatalf("unexpected decode: %+v", dec)
	}
}

func TestNotes_BadRequests(t *testing.T) {
	h := testRouter(nil)
	if rec := do(t, h, http.MethodPost, "/v1/notes/encode", "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("encode bad JSON: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/notes/decode", "nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("decode bad JSON: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/notes/encode", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET encode: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	last := int64(1_700_000_000)
	errMsg := "upstream down"
	tests := []struct {
		name       string
		sync       SyncReporter
		wantCode   int
		wantStatus string
	}{
		{"no sync reporter", nil, http.StatusOK, "ok"},
		{"never synced", fakeSync{}, http.StatusOK, "ok"},
		{"synced", fakeSync{state: &store.SyncState{LastSync: &last, LastStatus: "ok"}}, http.StatusOK, "ok"},
		{"failing", fakeSync{state: &store.SyncState{LastSync: &last, LastStatus: "error", LastError: &errMsg}}, http.StatusOK, "degraded"},
		{"store error", fakeSync{err: errors.New("disk")}, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testRouter(tt.sync), http.MethodGet, "/v1/health", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status %d", rec.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp healthResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Status != tt.wantStatus || resp.Customers != 3 {
				t.Fatalf("unexpected health: %+v", resp)
			}
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	h := testRouter(nil)
	rec := do(t, h, http.MethodGet, "/v1/health", "")
	if id := rec.Header().Get(kit.RequestIDHeader); len(id) != 36 {
		t.Errorf("request id = %q", id)
	}
}

func TestRouter_CORS(t *testing.T) {
	h := NewRouter(Deps{
		Index:          testIndex(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		AllowedOrigins: []string{"https://console.rebeauty.example"},
	})

	tests := []struct {
		origin string
		want   string
	}{
		{"https://console.rebeauty.example", "https://console.rebeauty.example"},
		{"https://evil.example", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/v1/notes/encode", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("origin %q: preflight status %d", tt.origin, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRouter_BearerToken(t *testing.T) {
	h := NewRouter(Deps{
		Index:  testIndex(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Token:  "s3cret",
	})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		auth   string
		want   int
	}{
		{"search without token", http.MethodGet, "/v1/customers/search?id=1", "", "", http.StatusUnauthorized},
		{"search wrong token", http.MethodGet, "/v1/customers/search?id=1", "", "Bearer nope", http.StatusUnauthorized},
		{"search not bearer", http.MethodGet, "/v1/customers/search?id=1", "", "s3cret", http.StatusUnauthorized},
		{"search with token", http.MethodGet, "/v1/customers/search?id=1", "", "Bearer s3cret", http.StatusOK},
		{"lookup without token", http.MethodGet, "/v1/customers/1", "", "", http.StatusUnauthorized},
		{"lookup with token", http.MethodGet, "/v1/customers/1", "", "Bearer s3cret", http.StatusOK},
		{"encode without token", http.MethodPost, "/v1/notes/encode", `{"memo":"x"}`, "", http.StatusUnauthorized},
		{"decode with token", http.MethodPost, "/v1/notes/decode", `{"note":"メモ: x"}`, "Bearer s3cret", http.StatusOK},
		{"health stays open", http.MethodGet, "/v1/health", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
