// Package client talks to the Re:Beauty HTTP API.
//
// Every call takes a context; cancelling it abandons the request, which is
// how callers discard stale responses when the user moves on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/session"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

const maxErrorBody = 64 * 1024

// Client is an API client bound to one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	logger     *slog.Logger
	attempts   int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets how many times idempotent requests are attempted and the
// base backoff between attempts (doubled each time).
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.backoff = backoff
	}
}

// New creates a client for baseURL. sess may be nil for anonymous use; it
// is filled in by Login.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		sess = &session.Session{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    sess,
		logger:     slog.Default(),
		attempts:   3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.session }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	header  http.Header
	noRetry bool
}

// do sends req and decodes a JSON response into out (when non-nil).
// GET requests are retried on network errors and 5xx answers.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
	}

	attempts := 1
	if req.method == http.MethodGet && !req.noRetry {
		attempts = c.attempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoff * time.Duration(1<<uint(attempt-1))
			c.logger.Debug("retrying api request", "method", req.method, "path", req.path, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.once(ctx, req, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return err
		}
	}
	if attempts > 1 {
		return fmt.Errorf("%s %s failed after %d attempts: %w", req.method, req.path, attempts, lastErr)
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, req request, payload []byte, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(req.method, req.path, resp.StatusCode, data)
		c.logger.Warn("api request failed", "method", req.method, "path", req.path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// --- auth ---

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	in := map[string]string{
		"email":    strings.TrimSpace(email),
		"password": strings.TrimSpace(password),
	}
	var out LoginResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: in}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login: %w: empty access token", ErrUpstream)
	}
	user := out.User
	c.session.Set(out.AccessToken, &user)
	c.logger.Info("logged in", "staff", c.session.StaffName())
	return &out, nil
}

// --- customers ---

// ListCustomers returns all customers, optionally filtered server-side by q.
func (c *Client) ListCustomers(ctx context.Context, q string) ([]Customer, error) {
	var query url.Values
	if q != "" {
		query = url.Values{"q": {q}}
	}
	var out []Customer
	if err := c.do(ctx, request{method: http.MethodGet, path: "/customers", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCustomer returns one customer.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/customers/", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCustomer registers a customer.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, request{method: http.MethodPost, path: "/customers", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCustomer patches a customer's contact details and note.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, in CustomerUpdate) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, request{method: http.MethodPatch, path: idPath("/customers/", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- visits ---

// ListVisits returns a customer's visit history.
func (c *Client) ListVisits(ctx context.Context, customerID int64) ([]Visit, error) {
	var out []Visit
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/visits/by-customer/", customerID)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVisit records a visit.
func (c *Client) CreateVisit(ctx context.Context, in VisitInput) (*Visit, error) {
	var out Visit
	if err := c.do(ctx, request{method: http.MethodPost, path: "/visits/", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVisit replaces a visit's content.
func (c *Client) UpdateVisit(ctx context.Context, id int64, in VisitUpdate) (*Visit, error) {
	var out Visit
	if err := c.do(ctx, request{method: http.MethodPut, path: idPath("/visits/", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVisit removes a visit.
func (c *Client) DeleteVisit(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/visits/", id)}, nil)
}

// TodayVisitCount returns the number of visits recorded today.
func (c *Client) TodayVisitCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/visits/today-count"}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// --- staffs ---

// ListStaffs returns all staff accounts.
func (c *Client) ListStaffs(ctx context.Context) ([]Staff, error) {
	var out []Staff
	if err := c.do(ctx, request{method: http.MethodGet, path: "/staffs/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStaff creates a staff account. bootstrapCode is only needed for the
// very first account, created without a token.
func (c *Client) CreateStaff(ctx context.Context, in StaffInput, bootstrapCode string) (*Staff, error) {
	req := request{method: http.MethodPost, path: "/staffs/", body: in}
	if bootstrapCode != "" {
		req.header = http.Header{"X-Bootstrap-Code": {bootstrapCode}}
	}
	var out Staff
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- dashboard & follow mail ---

// InactiveCustomers returns customers with no visit in segment for the
// segment's threshold.
func (c *Client) InactiveCustomers(ctx context.Context, segment string) ([]InactiveTarget, error) {
	var out []InactiveTarget
	q := url.Values{"segment": {segment}}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard/inactive-customers", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyNewCount returns the number of customers registered this month.
func (c *Client) MonthlyNewCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard/monthly-new-count"}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// FollowMailTargets returns recipients for a birthday or event mail.
func (c *Client) FollowMailTargets(ctx context.Context, mailType string) ([]MailTarget, error) {
	var out []MailTarget
	q := url.Values{"mail_type": {mailType}}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/follow-mail/targets", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTestEmail sends the mail to the logged-in staff member only.
func (c *Client) SendTestEmail(ctx context.Context, in EmailTest) (*EmailResult, error) {
	var out EmailResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/emails/test", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBulkEmail sends the mail to every listed customer.
func (c *Client) SendBulkEmail(ctx context.Context, in EmailBulk) (*EmailResult, error) {
	var out EmailResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/emails/bulk", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
