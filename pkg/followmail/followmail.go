// Package followmail builds follow-up mail campaigns: picking recipients
// for a mail type, checking the draft and handing it to the API.
package followmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hazyhaar/rebeauty/pkg/client"
)

// MailType is the kind of campaign.
type MailType string

const (
	Birthday       MailType = "birthday"
	Event          MailType = "event"
	PurchaseFollow MailType = "purchase_follow"
)

// Segment narrows purchase follow-ups to one product line.
type Segment string

const (
	Skincare Segment = "skincare"
	Makeup   Segment = "makeup"
)

var (
	ErrUnknownMailType = errors.New("followmail: unknown mail type")
	ErrUnknownSegment  = errors.New("followmail: unknown segment")
	ErrEmptySubject    = errors.New("followmail: subject is required")
	ErrEmptyBody       = errors.New("followmail: body is required")
	ErrNoRecipients    = errors.New("followmail: no recipients")
)

// ParseMailType accepts birthday, event and purchase_follow.
func ParseMailType(s string) (MailType, error) {
	switch t := MailType(strings.TrimSpace(s)); t {
	case Birthday, Event, PurchaseFollow:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMailType, s)
}

// ParseSegment accepts skincare and makeup. An empty string means skincare.
func ParseSegment(s string) (Segment, error) {
	switch sg := Segment(strings.TrimSpace(s)); sg {
	case "":
		return Skincare, nil
	case Skincare, Makeup:
		return sg, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSegment, s)
}

// InactiveDays is the threshold the API applies per segment.
func (s Segment) InactiveDays() int {
	if s == Makeup {
		return 120
	}
	return 90
}

// Recipient is one addressee of a campaign, whatever list it came from.
type Recipient struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Birthday   string `json:"birthday,omitempty"`
	LastVisit  string `json:"last_visit,omitempty"`
	DaysSince  int    `json:"days_since,omitempty"`
}

// API is the subset of the client used by the composer.
type API interface {
	InactiveCustomers(ctx context.Context, segment string) ([]client.InactiveTarget, error)
	FollowMailTargets(ctx context.Context, mailType string) ([]client.MailTarget, error)
	SendTestEmail(ctx context.Context, in client.EmailTest) (*client.EmailResult, error)
	SendBulkEmail(ctx context.Context, in client.EmailBulk) (*client.EmailResult, error)
}

// Composer drives campaigns against the API.
type Composer struct {
	api    API
	logger *slog.Logger
}

// NewComposer returns a composer. logger may be nil.
func NewComposer(api API, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{api: api, logger: logger}
}

// Targets lists the recipients for a mail type. segment only matters for
// purchase follow-ups.
func (c *Composer) Targets(ctx context.Context, mt MailType, segment Segment) ([]Recipient, error) {
	if mt == PurchaseFollow {
		if segment == "" {
			segment = Skincare
		}
		rows, err := c.api.InactiveCustomers(ctx, string(segment))
		if err != nil {
			return nil, fmt.Errorf("inactive customers (%s): %w", segment, err)
		}
		out := make([]Recipient, 0, len(rows))
		for _, r := range rows {
			out = append(out, Recipient{
				CustomerID: r.CustomerID,
				Name:       r.Name,
				Email:      r.Email,
				LastVisit:  r.LastVisitDate,
				DaysSince:  r.DaysSince,
			})
		}
		return out, nil
	}

	rows, err := c.api.FollowMailTargets(ctx, string(mt))
	if err != nil {
		return nil, fmt.Errorf("follow mail targets (%s): %w", mt, err)
	}
	out := make([]Recipient, 0, len(rows))
	for _, r := range rows {
		out = append(out, Recipient{
			CustomerID: r.ID,
			Name:       r.Name,
			Email:      r.Email,
			Birthday:   r.Birthday,
			LastVisit:  r.LatestVisitDate,
		})
	}
	return out, nil
}

// Draft is a mail ready to send.
type Draft struct {
	Subject string
	Body    string
}

// Validate checks that subject and body are filled in.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(d.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// SendTest mails the draft to the logged-in staff member.
func (c *Composer) SendTest(ctx context.Context, d Draft) (*client.EmailResult, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	res, err := c.api.SendTestEmail(ctx, client.EmailTest{Subject: d.Subject, Body: d.Body})
	if err != nil {
		return nil, fmt.Errorf("send test mail: %w", err)
	}
	return res, nil
}

// SendBulk mails the draft to every recipient, once per customer.
func (c *Composer) SendBulk(ctx context.Context, d Draft, recipients []Recipient) (*client.EmailResult, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	ids := RecipientIDs(recipients)
	if len(ids) == 0 {
		return nil, ErrNoRecipients
	}
	res, err := c.api.SendBulkEmail(ctx, client.EmailBulk{Subject: d.Subject, Body: d.Body, CustomerIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("send bulk mail: %w", err)
	}
	c.logger.Info("bulk mail sent", "recipients", len(ids), "sent", res.SentCount)
	return res, nil
}

// RecipientIDs returns the distinct customer ids in first-seen order.
// Zero ids are skipped.
func RecipientIDs(recipients []Recipient) []int64 {
	seen := make(map[int64]bool, len(recipients))
	ids := make([]int64, 0, len(recipients))
	for _, r := range recipients {
		if r.CustomerID == 0 || seen[r.CustomerID] {
			continue
		}
		seen[r.CustomerID] = true
		ids = append(ids, r.CustomerID)
	}
	return ids
}

// Suggestions returns the customers longest without a visit, at most limit
// of them. limit <= 0 means no cap. The input is not modified.
func Suggestions(recipients []Recipient, limit int) []Recipient {
	out := make([]Recipient, len(recipients))
	copy(out, recipients)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysSince > out[j].DaysSince })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
