package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Navigation failures are retryable: the scheduler decides whether to retry
// on a later cycle.
var (
	ErrNavigationTimeout = errors.New("browser: navigation timeout")
	ErrNetwork           = errors.New("browser: navigation failed")
)

// CookieInjector seeds a browser context with stored credentials before
// navigation. Implemented by *session.Session.
type CookieInjector interface {
	Inject(ctx context.Context) error
}

// Client opens authenticated pages. Each Open launches a fresh browser
// context seeded with the session cookies and tears it down on Page.Close,
// trading per-call launch cost for isolation from session corruption.
type Client struct {
	headless   bool
	sess       CookieInjector
	navTimeout time.Duration
	preNav     Pacer // delay before navigation
	settle     Pacer // delay after the page is ready
}

// NewClient creates a render client.
func NewClient(sess CookieInjector, headless bool, navTimeout time.Duration, preNav, settle Pacer) *Client {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &Client{
		headless:   headless,
		sess:       sess,
		navTimeout: navTimeout,
		preNav:     preNav,
		settle:     settle,
	}
}

// Page is a live rendered page. Close releases the whole browser context.
type Page struct {
	ctx     context.Context
	cancels []context.CancelFunc
}

// Close tears down the browser context behind the page.
func (p *Page) Close() {
	for i := len(p.cancels) - 1; i >= 0; i-- {
		p.cancels[i]()
	}
}

// Evaluate runs a JavaScript expression on the page and unmarshals the
// result into out.
func (p *Page) Evaluate(js string, out any) error {
	return chromedp.Run(p.ctx, chromedp.Evaluate(js, out))
}

// Run executes chromedp actions against the page.
func (p *Page) Run(actions ...chromedp.Action) error {
	return chromedp.Run(p.ctx, actions...)
}

// RunWithTimeout executes actions with a bounded deadline.
func (p *Page) RunWithTimeout(d time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, d)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Open launches a browser context, injects session cookies, navigates to
// url with a bounded timeout and waits for the page to settle. The caller
// must Close the returned page.
func (c *Client) Open(ctx context.Context, url string) (*Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(c.headless)...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancels := []context.CancelFunc{allocCancel, browserCancel}

	closeAll := func() {
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}

	if c.sess != nil {
		if err := c.sess.Inject(browserCtx); err != nil {
			closeAll()
			return nil, fmt.Errorf("browser: inject cookies: %w", err)
		}
	}

	if err := c.preNav.Wait(browserCtx); err != nil {
		closeAll()
		return nil, err
	}

	navCtx, navCancel := context.WithTimeout(browserCtx, c.navTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	navCancel()
	if err != nil {
		closeAll()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, url, err)
	}

	// Pacing, not correctness: give dynamic content a chance to land and
	// keep the request cadence plausible.
	if err := c.settle.Wait(browserCtx); err != nil {
		closeAll()
		return nil, err
	}

	return &Page{ctx: browserCtx, cancels: cancels}, nil
}
