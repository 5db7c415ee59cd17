package client

import "github.com/hazyhaar/rebeauty/pkg/session"

// Dates are exchanged as "YYYY-MM-DD" strings and kept that way; callers
// that need time.Time parse them where the calendar matters.

// Customer is a customer record as returned by the API.
type Customer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Kana       string `json:"kana,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	EmailOptIn bool   `json:"email_opt_in"`
	Note       string `json:"note,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
}

// CustomerInput creates a customer.
type CustomerInput struct {
	Name       string `json:"name"`
	Kana       string `json:"kana,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	EmailOptIn bool   `json:"email_opt_in"`
	Note       string `json:"note,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
}

// CustomerUpdate patches a customer; nil fields are left untouched.
type CustomerUpdate struct {
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Birthday   *string `json:"birthday,omitempty"`
	Note       *string `json:"note,omitempty"`
	EmailOptIn *bool   `json:"email_opt_in,omitempty"`
}

// VisitItem is a product or service recorded on a visit.
type VisitItem struct {
	ID            int64  `json:"id"`
	Category      string `json:"category"`
	ProductName   string `json:"product_name,omitempty"`
	Note          string `json:"note,omitempty"`
	FollowDueDate string `json:"follow_due_date,omitempty"`
	FollowSentAt  string `json:"follow_sent_at,omitempty"`
}

// VisitItemInput is a visit item in a create or update payload.
type VisitItemInput struct {
	Category    string  `json:"category"`
	ProductName string  `json:"product_name,omitempty"`
	Note        *string `json:"note"`
}

// Visit is one entry of a customer's visit history.
type Visit struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	VisitDate  string      `json:"visit_date"`
	Memo       string      `json:"memo,omitempty"`
	StaffID    *int64      `json:"staff_id,omitempty"`
	CreatedAt  string      `json:"created_at,omitempty"`
	Items      []VisitItem `json:"items"`
}

// VisitInput records a new visit.
type VisitInput struct {
	CustomerID int64            `json:"customer_id"`
	VisitDate  string           `json:"visit_date"`
	Memo       *string          `json:"memo"`
	StaffID    *int64           `json:"staff_id"`
	Items      []VisitItemInput `json:"items"`
}

// VisitUpdate replaces a visit's content. The customer cannot change.
type VisitUpdate struct {
	VisitDate string           `json:"visit_date"`
	Memo      *string          `json:"memo"`
	StaffID   *int64           `json:"staff_id"`
	Items     []VisitItemInput `json:"items"`
}

// Staff is a staff account.
type Staff struct {
	ID        int64  `json:"id"`
	StaffCode string `json:"staff_code,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
}

// StaffInput creates a staff account.
type StaffInput struct {
	StaffCode string `json:"staff_code,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// InactiveTarget is a customer whose last visit in a segment is old enough
// to warrant a follow-up.
type InactiveTarget struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	LastVisitDate string `json:"last_visit_date"`
	DaysSince     int    `json:"days_since"`
	Segment       string `json:"segment"`
}

// MailTarget is a recipient for birthday and event mails.
type MailTarget struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Birthday        string `json:"birthday,omitempty"`
	LatestVisitDate string `json:"latest_visit_date,omitempty"`
}

// EmailTest sends a mail to the logged-in staff member.
type EmailTest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailBulk sends a mail to a list of customers.
type EmailBulk struct {
	Subject     string  `json:"subject"`
	Body        string  `json:"body"`
	CustomerIDs []int64 `json:"customer_ids"`
}

// EmailResult is the API's answer to a send request.
type EmailResult struct {
	Message   string `json:"message"`
	SentCount int    `json:"sent_count"`
}

// LoginResult is the answer to a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        session.User `json:"user"`
}

type countResponse struct {
	Count int `json:"count"`
}
