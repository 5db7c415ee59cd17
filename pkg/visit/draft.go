package visit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
)

const (
	uiDateLayout  = "2006/01/02"
	apiDateLayout = "2006-01-02"
)

var (
	ErrNoDate  = errors.New("visit: date is required")
	ErrNoStaff = errors.New("visit: staff is required")
	ErrNoItems = errors.New("visit: at least one item is required")
)

// Draft is a visit being entered or edited. Items are product names from
// the catalog; anything else is recorded under other.
type Draft struct {
	Date    string
	StaffID int64
	Items   []string
	Memo    string
}

// Validate checks the fields the ledger requires.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Date) == "" {
		return ErrNoDate
	}
	if _, err := ToAPIDate(d.Date); err != nil {
		return err
	}
	if d.StaffID <= 0 {
		return ErrNoStaff
	}
	if len(d.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

func (d Draft) items() []client.VisitItemInput {
	out := make([]client.VisitItemInput, 0, len(d.Items))
	for _, name := range d.Items {
		out = append(out, client.VisitItemInput{
			Category:    CategoryFor(name),
			ProductName: name,
		})
	}
	return out
}

func (d Draft) memo() *string {
	if m := strings.TrimSpace(d.Memo); m != "" {
		return &m
	}
	return nil
}

// ToCreate builds the payload registering the draft for a customer.
func (d Draft) ToCreate(customerID int64) (client.VisitInput, error) {
	if err := d.Validate(); err != nil {
		return client.VisitInput{}, err
	}
	date, _ := ToAPIDate(d.Date)
	staff := d.StaffID
	return client.VisitInput{
		CustomerID: customerID,
		VisitDate:  date,
		Memo:       d.memo(),
		StaffID:    &staff,
		Items:      d.items(),
	}, nil
}

// ToUpdate builds the payload replacing an existing visit.
func (d Draft) ToUpdate() (client.VisitUpdate, error) {
	if err := d.Validate(); err != nil {
		return client.VisitUpdate{}, err
	}
	date, _ := ToAPIDate(d.Date)
	staff := d.StaffID
	return client.VisitUpdate{
		VisitDate: date,
		Memo:      d.memo(),
		StaffID:   &staff,
		Items:     d.items(),
	}, nil
}

// FromVisit loads a recorded visit back into an editable draft.
func FromVisit(v client.Visit) Draft {
	d := Draft{Date: FromAPIDate(v.VisitDate), Memo: v.Memo}
	if v.StaffID != nil {
		d.StaffID = *v.StaffID
	}
	for _, it := range v.Items {
		if it.ProductName != "" {
			d.Items = append(d.Items, it.ProductName)
		}
	}
	return d
}

// ToAPIDate converts a YYYY/MM/DD date to YYYY-MM-DD. Dates already in API
// form are accepted.
func ToAPIDate(s string) (string, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	t, err := time.Parse(apiDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("visit: invalid date %q: %w", s, err)
	}
	return t.Format(apiDateLayout), nil
}

// FromAPIDate converts YYYY-MM-DD to the YYYY/MM/DD form staff enter.
func FromAPIDate(s string) string {
	return strings.ReplaceAll(s, "-", "/")
}

// Today returns today's date in UI form.
func Today(now time.Time) string {
	return now.Format(uiDateLayout)
}

// ItemLabel renders an item as shown in the visit history.
func ItemLabel(category, product string) string {
	if product == "" {
		return category
	}
	return category + "：" + product
}

// ProductFromLabel recovers the product name from an ItemLabel.
func ProductFromLabel(label string) string {
	if i := strings.LastIndex(label, "："); i >= 0 {
		return strings.TrimSpace(label[i+len("："):])
	}
	return strings.TrimSpace(label)
}
