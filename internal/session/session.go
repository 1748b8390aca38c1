// Package session loads stored X.com session credentials and seeds them
// into a browsing context.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ErrMissingCredentials indicates the credential file lacks the cookies
// required for an authenticated session. This is fatal: the session must be
// re-captured out of band.
var ErrMissingCredentials = errors.New("session: missing auth_token or ct0 cookie")

// Required identity cookies for X.com.
const (
	cookieAuthToken = "auth_token"
	cookieCSRF      = "ct0"
)

// Credential is a single stored cookie-like record.
type Credential struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // -1 = session-scoped
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// Session is a normalized, validated set of credentials.
type Session struct {
	creds []Credential
}

// Load reads a credential list from path, normalizes it and validates that
// the required identity cookies are present.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: read credential file: %w", err)
	}

	var raw []struct {
		Name     string `json:"name"`
		Value    string `json:"value"`
		Domain   string `json:"domain"`
		Path     string `json:"path"`
		HTTPOnly bool   `json:"httpOnly"`
		Secure   *bool  `json:"secure"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("session: parse credential file: %w", err)
	}

	creds := make([]Credential, 0, len(raw))
	for _, r := range raw {
		c := Credential{
			Name:     r.Name,
			Value:    r.Value,
			Domain:   r.Domain,
			Path:     r.Path,
			Expires:  -1, // session-scoped; replaced wholesale on refresh
			HTTPOnly: r.HTTPOnly,
			Secure:   true,
		}
		if c.Domain == "" {
			c.Domain = ".x.com"
		}
		if c.Path == "" {
			c.Path = "/"
		}
		if r.Secure != nil {
			c.Secure = *r.Secure
		}
		creds = append(creds, c)
	}

	s := &Session{creds: creds}
	if !s.hasRequired() {
		return nil, ErrMissingCredentials
	}

	return s, nil
}

func (s *Session) hasRequired() bool {
	var hasAuth, hasCSRF bool
	for _, c := range s.creds {
		if c.Name == cookieAuthToken && c.Value != "" {
			hasAuth = true
		}
		if c.Name == cookieCSRF && c.Value != "" {
			hasCSRF = true
		}
	}
	return hasAuth && hasCSRF
}

// Credentials returns a copy of the normalized credential list.
func (s *Session) Credentials() []Credential {
	out := make([]Credential, len(s.creds))
	copy(out, s.creds)
	return out
}

// Inject sets the session cookies on a chromedp browser context. It must run
// before navigation.
func (s *Session) Inject(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range s.creds {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					Do(ctx)
				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}
