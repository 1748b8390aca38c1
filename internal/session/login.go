package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/openclaw/birdwatch/internal/browser"
)

// Capture opens a visible browser window for the user to log in to X.com,
// then extracts the session cookies and writes them to path. This is the
// out-of-band re-authentication path for a missing or expired session.
func Capture(ctx context.Context, path string) error {
	opts := browser.Options(false) // headful so the user can log in

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate("https://x.com/login")); err != nil {
		return fmt.Errorf("session: navigate to login page: %w", err)
	}

	creds, err := waitForLogin(browserCtx)
	if err != nil {
		return fmt.Errorf("session: login: %w", err)
	}

	return save(path, creds)
}

// waitForLogin polls until the browser lands on the home timeline with an
// auth_token cookie set.
func waitForLogin(ctx context.Context) ([]Credential, error) {
	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, fmt.Errorf("login timeout exceeded")
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}
			if url != "https://x.com/home" && url != "https://twitter.com/home" {
				continue
			}

			creds, err := extractCredentials(ctx)
			if err != nil {
				continue
			}
			for _, c := range creds {
				if c.Name == cookieAuthToken && c.Value != "" {
					return creds, nil
				}
			}
		}
	}
}

func extractCredentials(ctx context.Context) ([]Credential, error) {
	var creds []Credential

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := storage.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			for _, c := range cookies {
				if c.Domain != ".x.com" && c.Domain != "x.com" {
					continue
				}
				creds = append(creds, Credential{
					Name:     c.Name,
					Value:    c.Value,
					Domain:   c.Domain,
					Path:     c.Path,
					Expires:  -1,
					HTTPOnly: c.HTTPOnly,
					Secure:   c.Secure,
				})
			}
			return nil
		}),
	)

	return creds, err
}

func save(path string, creds []Credential) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
