package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/birdwatch/internal/config"
	"github.com/openclaw/birdwatch/internal/dedup"
	"github.com/openclaw/birdwatch/internal/extractor"
	"github.com/openclaw/birdwatch/internal/policy"
	"github.com/openclaw/birdwatch/internal/records"
	"github.com/openclaw/birdwatch/internal/types"
	"github.com/openclaw/birdwatch/internal/workflow"
)

const itemTimestamp = "2026-08-30T12:00:00Z"

// itemJSON is a one-item payload in the shape the extraction script returns.
func itemJSON(text, permalink string, isReply bool) string {
	return fmt.Sprintf(
		`[{"text":%q,"permalink":%q,"timestamp":%q,"author":"someone","likes":"1","replies":"0","retweets":"0","isReply":%t}]`,
		text, permalink, itemTimestamp, isReply)
}

// fakePage serves a canned extraction payload instead of a browser.
type fakePage struct {
	payload string
	closed  bool
}

func (p *fakePage) Evaluate(js string, out any) error {
	return json.Unmarshal([]byte(p.payload), out)
}

func (p *fakePage) Close() { p.closed = true }

type fakeSink struct {
	mu    sync.Mutex
	items []types.Item
}

func (s *fakeSink) Notify(it types.Item, matchedKeywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, it)
	return nil
}

type nopDriver struct{}

func (nopDriver) Navigate(ctx context.Context, url string) error   { return nil }
func (nopDriver) LocateComposer(ctx context.Context) error         { return nil }
func (nopDriver) EnterText(ctx context.Context, text string) error { return nil }
func (nopDriver) Submit(ctx context.Context) error                 { return nil }
func (nopDriver) Verify(ctx context.Context) error                 { return nil }
func (nopDriver) Close()                                           {}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestApp(t *testing.T, cfg *config.Config, open func(ctx context.Context, url string) (Page, error), sink *fakeSink) *App {
	t.Helper()

	dir := t.TempDir()
	recs, err := records.Open(filepath.Join(dir, "replies.json"))
	require.NoError(t, err)

	return &App{
		cfg:    cfg,
		log:    quietLogger(),
		ext:    extractor.New(),
		states: dedup.NewStore(filepath.Join(dir, "state.json"), 0),
		recs:   recs,
		sink:   sink,
		pol: policy.Policy{
			Keywords:    cfg.Policy.Keywords,
			Blacklist:   cfg.Policy.Blacklist,
			SpamPhrases: cfg.Policy.SpamPhrases,
			Handle:      cfg.Mentions.Handle,
		},
		open:      open,
		newDriver: func() workflow.Driver { return nopDriver{} },
	}
}

func TestWatchCycleContainsTargetFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.Targets = []string{"https://x.com/broken", "https://x.com/working"}
	cfg.Policy.Keywords = []string{"AI"}

	var pages []*fakePage
	open := func(ctx context.Context, url string) (Page, error) {
		if strings.Contains(url, "broken") {
			return nil, errors.New("navigation failed")
		}
		p := &fakePage{payload: itemJSON("big AI release", "https://x.com/a/status/7", false)}
		pages = append(pages, p)
		return p, nil
	}

	sink := &fakeSink{}
	a := newTestApp(t, cfg, open, sink)

	require.NoError(t, a.WatchCycle(context.Background()))

	// The failing target does not stop the working one.
	require.Len(t, sink.items, 1)
	assert.Equal(t, "big AI release", sink.items[0].Text)
	for _, p := range pages {
		assert.True(t, p.closed)
	}

	// The working target's fingerprint was committed and persisted.
	ledger, err := a.states.Load()
	require.NoError(t, err)
	assert.True(t, ledger.Contains(dedup.Fingerprint(sink.items[0])))

	// A second cycle sees the same item as already processed.
	require.NoError(t, a.WatchCycle(context.Background()))
	assert.Len(t, sink.items, 1)
}

func TestMentionCycleReplies(t *testing.T) {
	cfg := config.Default()
	cfg.Mentions.Handle = "birdbot"
	cfg.Mentions.Reply = true
	cfg.Mentions.ReplyDelaySeconds = 0
	cfg.Policy.Keywords = []string{"AI"}
	cfg.Policy.DefaultReply = "Thanks for the mention!"

	open := func(ctx context.Context, url string) (Page, error) {
		return &fakePage{payload: itemJSON("@birdbot what about AI?", "https://x.com/u/status/55", true)}, nil
	}

	a := newTestApp(t, cfg, open, &fakeSink{})
	require.NoError(t, a.MentionCycle(context.Background()))

	attempt, ok := a.recs.Get("55")
	require.True(t, ok)
	assert.Equal(t, records.OutcomeSuccess, attempt.Outcome)
	assert.Equal(t, "Thanks for the mention!", attempt.RepliedText)

	// The same mention reappearing does not trigger a second attempt.
	require.NoError(t, a.MentionCycle(context.Background()))
}

func TestConcurrentCyclesSerialized(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.Targets = []string{"https://x.com/i/lists/7"}
	cfg.Mentions.Handle = "birdbot"
	cfg.Policy.Keywords = []string{"AI"}

	var inFlight, maxInFlight int32
	open := func(ctx context.Context, url string) (Page, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)

		if url == mentionsURL {
			return &fakePage{payload: itemJSON("AI mention here", "https://x.com/u/status/2", false)}, nil
		}
		return &fakePage{payload: itemJSON("AI feed item", "https://x.com/u/status/1", false)}, nil
	}

	a := newTestApp(t, cfg, open, &fakeSink{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = a.WatchCycle(context.Background()) }()
	go func() { defer wg.Done(); _ = a.MentionCycle(context.Background()) }()
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "cycles must not interleave")

	// Neither cycle's save drops the other's fingerprints.
	ledger, err := a.states.Load()
	require.NoError(t, err)
	assert.True(t, ledger.Contains(dedup.Fingerprint(types.Item{Text: "AI feed item", Timestamp: itemTimestamp})))
	assert.True(t, ledger.Contains(dedup.Fingerprint(types.Item{Text: "AI mention here", Timestamp: itemTimestamp})))
}
