// Package app wires the pipeline: render -> extract -> dedup -> filter ->
// alert or reply, one target at a time.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openclaw/birdwatch/internal/archive"
	"github.com/openclaw/birdwatch/internal/browser"
	"github.com/openclaw/birdwatch/internal/config"
	"github.com/openclaw/birdwatch/internal/dedup"
	"github.com/openclaw/birdwatch/internal/extractor"
	"github.com/openclaw/birdwatch/internal/notifier"
	"github.com/openclaw/birdwatch/internal/policy"
	"github.com/openclaw/birdwatch/internal/records"
	"github.com/openclaw/birdwatch/internal/types"
	"github.com/openclaw/birdwatch/internal/workflow"
)

const mentionsURL = "https://x.com/notifications/mentions"

// Page is a rendered page a cycle extracts from and then closes.
// *browser.Page implements it.
type Page interface {
	Evaluate(js string, out any) error
	Close()
}

// App holds the wired pipeline. Targets are processed sequentially per
// cycle; the only cross-cycle state is the dedup ledger and the reply
// record, each read fully at cycle start and rewritten at cycle end.
// The mutex keeps the watch and mention cycles from interleaving those
// read-modify-write passes.
type App struct {
	mu sync.Mutex

	cfg    *config.Config
	log    *logrus.Logger
	ext    *extractor.Extractor
	states *dedup.Store
	recs   *records.Store
	arch   *archive.Archive // nil disables archiving
	sink   notifier.Sink
	pol    policy.Policy

	betweenTargets browser.Pacer

	// open renders a target page. Swappable so cycles are testable
	// without a browser.
	open func(ctx context.Context, url string) (Page, error)

	// newDriver builds the interaction driver for one reply attempt.
	newDriver func() workflow.Driver
}

// New wires an App from its components.
func New(cfg *config.Config, log *logrus.Logger, client *browser.Client,
	sink notifier.Sink, states *dedup.Store, recs *records.Store, arch *archive.Archive) *App {

	typing := browser.NewPacer(
		time.Duration(cfg.Pacing.TypeMinMillis)*time.Millisecond,
		time.Duration(cfg.Pacing.TypeMaxMillis)*time.Millisecond,
	)

	return &App{
		cfg:    cfg,
		log:    log,
		ext:    extractor.New(),
		states: states,
		recs:   recs,
		arch:   arch,
		sink:   sink,
		pol: policy.Policy{
			Keywords:    cfg.Policy.Keywords,
			Blacklist:   cfg.Policy.Blacklist,
			SpamPhrases: cfg.Policy.SpamPhrases,
			Handle:      cfg.Mentions.Handle,
		},
		betweenTargets: browser.NewPacer(
			secs(cfg.Pacing.PreNavMinSeconds), secs(cfg.Pacing.PreNavMaxSeconds)),
		open: func(ctx context.Context, url string) (Page, error) {
			return client.Open(ctx, url)
		},
		newDriver: func() workflow.Driver {
			return workflow.NewChromeDriver(client, typing)
		},
	}
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WatchCycle runs one pass over the configured watch targets: extract,
// partition against the ledger, classify, alert relevant fresh items, then
// commit and persist the ledger. Per-target failures are logged and
// contained; they never abort the cycle.
func (a *App) WatchCycle(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ledger, err := a.states.Load()
	if err != nil {
		return err
	}

	for i, target := range a.cfg.Watch.Targets {
		if i > 0 {
			if err := a.betweenTargets.Wait(ctx); err != nil {
				return err
			}
		}
		if err := a.watchTarget(ctx, ledger, target); err != nil {
			a.log.WithField("target", target).Errorf("target failed: %v", err)
		}
	}

	return a.states.Save(ledger)
}

func (a *App) watchTarget(ctx context.Context, ledger *dedup.Ledger, target string) error {
	items, err := a.fetch(ctx, target)
	if err != nil {
		return err
	}

	fresh, seen := ledger.Partition(items)
	a.log.WithFields(logrus.Fields{
		"target": target, "extracted": len(items), "new": len(fresh), "seen": len(seen),
	}).Info("extraction cycle")

	for _, it := range fresh {
		fp := dedup.Fingerprint(it)

		res := policy.Classify(it, a.pol)
		if res.Relevant {
			if err := a.sink.Notify(it, res.Matched); err != nil {
				// Best effort: log and move on.
				a.log.Warnf("alert failed for %s: %v", it.Permalink, err)
			}
		} else {
			a.log.WithFields(logrus.Fields{
				"target": target, "reason": string(res.Reason),
			}).Debug("item ignored")
		}

		a.archiveItem(fp, it)
		ledger.Commit(fp)
	}

	return nil
}

// MentionCycle polls the mention feed and replies to relevant addressed
// mentions, pacing between consecutive replies.
func (a *App) MentionCycle(ctx context.Context) error {
	if a.cfg.Mentions.Handle == "" {
		return fmt.Errorf("mentions: no handle configured")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ledger, err := a.states.Load()
	if err != nil {
		return err
	}

	items, err := a.fetch(ctx, mentionsURL)
	if err != nil {
		return err
	}

	fresh, _ := ledger.Partition(items)
	a.log.WithFields(logrus.Fields{
		"extracted": len(items), "new": len(fresh),
	}).Info("mention cycle")

	replyDelay := time.Duration(a.cfg.Mentions.ReplyDelaySeconds) * time.Second

	for _, it := range fresh {
		fp := dedup.Fingerprint(it)
		res := policy.Classify(it, a.pol)

		if res.Relevant && a.cfg.Mentions.Reply {
			if a.replyTo(ctx, it) {
				// Delay between replies to avoid spamming.
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(replyDelay):
				}
			}
		}

		a.archiveItem(fp, it)
		ledger.Commit(fp)
	}

	return a.states.Save(ledger)
}

// replyTo runs the interaction workflow for one mention. Returns true on a
// verified reply.
func (a *App) replyTo(ctx context.Context, it types.Item) bool {
	id := it.ID()
	if a.recs.Has(id) {
		return false
	}

	text := policy.ReplyFor(it.Text, a.replyRules(), a.cfg.Policy.DefaultReply)

	wf := workflow.New(a.newDriver(), a.recs, a.log)
	result, err := wf.Run(ctx, id, it.Permalink, text)

	if a.arch != nil {
		outcome := records.OutcomeSuccess
		if result.State != workflow.StateVerified {
			outcome = records.OutcomeFailure
		}
		if archErr := a.arch.SaveAttempt(id, outcome, result.FailedStep, text); archErr != nil {
			a.log.Warnf("archive attempt failed for %s: %v", id, archErr)
		}
	}

	if err != nil {
		a.log.WithFields(logrus.Fields{
			"target": id, "step": result.FailedStep,
		}).Warnf("reply failed: %v", err)
		return false
	}

	a.log.WithField("target", id).Info("reply verified")
	return true
}

func (a *App) replyRules() []policy.ReplyRule {
	rules := make([]policy.ReplyRule, 0, len(a.cfg.Policy.Replies))
	for _, r := range a.cfg.Policy.Replies {
		rules = append(rules, policy.ReplyRule{Contains: r.Contains, Reply: r.Reply})
	}
	return rules
}

// fetch opens the target and extracts its items. The browser context lives
// only for the duration of the extraction.
func (a *App) fetch(ctx context.Context, target string) ([]types.Item, error) {
	page, err := a.open(ctx, target)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	return a.ext.Extract(page, target)
}

func (a *App) archiveItem(fp string, it types.Item) {
	if a.arch == nil {
		return
	}
	if err := a.arch.SaveItem(fp, it); err != nil {
		a.log.Warnf("archive item failed: %v", err)
	}
}
