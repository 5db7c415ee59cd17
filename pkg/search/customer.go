package search

import "strings"

// Customer is the searchable projection of a customer record.
type Customer struct {
	ID        string `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

// NewCustomer builds a Customer from the single name string the API stores.
func NewCustomer(id, name, phone string) Customer {
	last, first := SplitName(name)
	return Customer{ID: id, LastName: last, FirstName: first, Phone: phone}
}

// SplitName splits a full name into last and first name. Names containing
// whitespace split at the first run of it; the remaining words are joined
// by a single space. Names without whitespace split at the midpoint,
// rounding up, so "山田花子" gives "山田" / "花子" and "佐藤舞" gives "佐藤" / "舞".
func SplitName(full string) (last, first string) {
	full = strings.TrimSpace(full)
	if parts := strings.Fields(full); len(parts) > 1 {
		return parts[0], strings.Join(parts[1:], " ")
	}
	r := []rune(full)
	mid := (len(r) + 1) / 2
	return string(r[:mid]), string(r[mid:])
}

// DisplayName is last and first name with no separator, the form names are
// matched against.
func (c Customer) DisplayName() string {
	return c.LastName + c.FirstName
}

// FullName is last and first name separated by a space, the form shown to staff.
func (c Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.LastName + " " + c.FirstName
}

// Query holds the three independent search inputs.
type Query struct {
	ByID    string `json:"id,omitempty"`
	ByName  string `json:"name,omitempty"`
	ByPhone string `json:"phone,omitempty"`
}

// IsEmpty reports whether every component is blank after Normalize.
func (q Query) IsEmpty() bool {
	return q.IsEmptyWith(Normalize)
}

// IsEmptyWith is IsEmpty under another normalizer. MatchWith returns no
// customers exactly when this is true.
func (q Query) IsEmptyWith(normalize Normalizer) bool {
	return normalize(q.ByID) == "" && normalize(q.ByName) == "" && normalize(q.ByPhone) == ""
}
