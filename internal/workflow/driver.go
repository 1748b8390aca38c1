package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/openclaw/birdwatch/internal/browser"
)

// Composer selectors. Role+label based where possible; kept here because X
// changes this markup frequently.
const (
	replyButton  = `[data-testid="reply"]`
	composerBox  = `[data-testid="tweetTextarea_0"]`
	submitButton = `[data-testid="tweetButton"]`

	composerTimeout = 10 * time.Second
	verifySettle    = 4 * time.Second
)

// ChromeDriver implements Driver against a live browser via the render
// client. One driver serves one attempt; Navigate acquires the page and
// Close releases it.
type ChromeDriver struct {
	client *browser.Client
	typing browser.Pacer // per-character delay
	page   *browser.Page
}

// NewChromeDriver creates a driver. typing bounds the per-character delay
// used while entering text.
func NewChromeDriver(client *browser.Client, typing browser.Pacer) *ChromeDriver {
	return &ChromeDriver{client: client, typing: typing}
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	page, err := d.client.Open(ctx, url)
	if err != nil {
		return err
	}
	d.page = page
	return nil
}

func (d *ChromeDriver) LocateComposer(ctx context.Context) error {
	err := d.page.RunWithTimeout(composerTimeout,
		chromedp.Click(replyButton, chromedp.ByQuery),
		chromedp.WaitVisible(composerBox, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrComposerNotFound, err)
	}
	return nil
}

// EnterText types one character at a time with jittered delays to mimic
// human pacing.
func (d *ChromeDriver) EnterText(ctx context.Context, text string) error {
	if err := d.page.Run(chromedp.Click(composerBox, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("workflow: focus composer: %w", err)
	}

	for _, r := range text {
		if err := d.page.Run(chromedp.SendKeys(composerBox, string(r), chromedp.ByQuery)); err != nil {
			return fmt.Errorf("workflow: type text: %w", err)
		}
		if err := d.typing.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (d *ChromeDriver) Submit(ctx context.Context) error {
	// If multiple controls match, chromedp clicks the first; a click
	// failure is terminal for the attempt.
	err := d.page.RunWithTimeout(composerTimeout,
		chromedp.Click(submitButton, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	return nil
}

// Verify waits a fixed settle interval and reloads. Optimistic: elapsed
// time plus a successful reload is the only confirmation.
func (d *ChromeDriver) Verify(ctx context.Context) error {
	t := time.NewTimer(verifySettle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	if err := d.page.Run(chromedp.Reload()); err != nil {
		return fmt.Errorf("workflow: verify reload: %w", err)
	}
	return nil
}

func (d *ChromeDriver) Close() {
	if d.page != nil {
		d.page.Close()
		d.page = nil
	}
}

var _ Driver = (*ChromeDriver)(nil)
