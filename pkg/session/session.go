// Package session holds the logged-in staff member's credentials.
//
// A Session is an explicit value handed to the API client. It is persisted
// through a Store under canonical keys; Load also understands the legacy
// key names older clients wrote and migrates them on first read.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Canonical storage keys.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
	KeyStaffName   = "staff_name"
)

// Legacy key names, checked in order after the canonical key.
var (
	legacyTokenKeys     = []string{"rb_token", "accessToken"}
	legacyUserKeys      = []string{"rb_user"}
	legacyStaffNameKeys = []string{"rb_staff_name"}
)

// ErrNotLoggedIn is returned when an operation needs a token and none is set.
var ErrNotLoggedIn = errors.New("not logged in")

// User is the staff member the API issued the token for.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	StaffCode string `json:"staff_code,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	mu          sync.RWMutex
	accessToken string
	user        *User
	staffName   string
}

// New returns a session for token and user.
func New(token string, user *User) *Session {
	s := &Session{}
	s.Set(token, user)
	return s
}

// Set replaces the credentials. The staff name is derived from the user:
// its name, falling back to its email.
func (s *Session) Set(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	s.user = user
	s.staffName = ""
	if user != nil {
		s.staffName = user.Name
		if s.staffName == "" {
			s.staffName = user.Email
		}
	}
}

// Clear drops all credentials.
func (s *Session) Clear() {
	s.Set("", nil)
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns a copy of the logged-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// StaffName is the name shown in the console header, "-" when unknown.
func (s *Session) StaffName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.staffName == "" {
		return "-"
	}
	return s.staffName
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// ExpiresAt reads the exp claim of a JWT access token. The signature is not
// verified; only the API can do that. ok is false for opaque tokens and
// tokens without exp.
func (s *Session) ExpiresAt() (t time.Time, ok bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token is missing or past its exp claim.
func (s *Session) Expired(now time.Time) bool {
	if !s.LoggedIn() {
		return true
	}
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// Load restores a session from store, migrating legacy keys to the
// canonical ones. A store with no token yields a logged-out session.
func Load(store Store) (*Session, error) {
	token, err := migrate(store, KeyAccessToken, legacyTokenKeys)
	if err != nil {
		return nil, err
	}
	rawUser, err := migrate(store, KeyUser, legacyUserKeys)
	if err != nil {
		return nil, err
	}
	staffName, err := migrate(store, KeyStaffName, legacyStaffNameKeys)
	if err != nil {
		return nil, err
	}

	s := &Session{}
	var user *User
	if rawUser != "" {
		user = &User{}
		if err := json.Unmarshal([]byte(rawUser), user); err != nil {
			return nil, fmt.Errorf("decode stored user: %w", err)
		}
	}
	s.Set(token, user)
	if staffName != "" {
		s.mu.Lock()
		s.staffName = staffName
		s.mu.Unlock()
	}
	return s, nil
}

// migrate returns the value under key, falling back to the legacy keys in
// order. A legacy hit is copied to key; legacy keys are removed either way.
func migrate(store Store, key string, legacy []string) (string, error) {
	value, ok, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || value == "" {
		for _, lk := range legacy {
			v, found, err := store.Get(lk)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", lk, err)
			}
			if found && v != "" {
				value = v
				if err := store.Set(key, v); err != nil {
					return "", fmt.Errorf("migrate %s -> %s: %w", lk, key, err)
				}
				break
			}
		}
	}
	for _, lk := range legacy {
		if err := store.Delete(lk); err != nil {
			return "", fmt.Errorf("delete %s: %w", lk, err)
		}
	}
	return value, nil
}

// Save writes the session under the canonical keys. A logged-out session
// removes them.
func Save(store Store, s *Session) error {
	if !s.LoggedIn() {
		return Forget(store)
	}
	if err := store.Set(KeyAccessToken, s.Token()); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if u := s.User(); u != nil {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := store.Set(KeyUser, string(data)); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
	}
	s.mu.RLock()
	name := s.staffName
	s.mu.RUnlock()
	if name != "" {
		if err := store.Set(KeyStaffName, name); err != nil {
			return fmt.Errorf("save staff name: %w", err)
		}
	}
	return nil
}

// Forget removes every session key, canonical and legacy.
func Forget(store Store) error {
	keys := []string{KeyAccessToken, KeyUser, KeyStaffName}
	keys = append(keys, legacyTokenKeys...)
	keys = append(keys, legacyUserKeys...)
	keys = append(keys, legacyStaffNameKeys...)
	for _, k := range keys {
		if err := store.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
