// Command birdwatch monitors X.com feeds for keyword matches and mentions,
// alerts on new matches, and optionally auto-replies. It runs until
// interrupted.
package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openclaw/birdwatch/internal/app"
	"github.com/openclaw/birdwatch/internal/archive"
	"github.com/openclaw/birdwatch/internal/browser"
	"github.com/openclaw/birdwatch/internal/config"
	"github.com/openclaw/birdwatch/internal/dedup"
	"github.com/openclaw/birdwatch/internal/logging"
	"github.com/openclaw/birdwatch/internal/notifier"
	"github.com/openclaw/birdwatch/internal/records"
	"github.com/openclaw/birdwatch/internal/scheduler"
	"github.com/openclaw/birdwatch/internal/session"
)

func main() {
	_ = godotenv.Load()
	log := logging.New()

	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
			if saveErr := cfg.Save(); saveErr != nil {
				log.Warnf("could not save default config: %v", saveErr)
			} else {
				path, _ := config.ConfigPath()
				log.Infof("created default config at %s", path)
			}
			cfg, err = config.Load()
			if err != nil {
				log.Fatalf("failed to reload config: %v", err)
			}
		} else {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	// A missing or malformed session is fatal: re-authenticate with
	// `bwctl login` and restart.
	sess, err := session.Load(cfg.Storage.CookiePath)
	if err != nil {
		if errors.Is(err, session.ErrMissingCredentials) {
			log.Fatalf("session credentials incomplete (%v); run `bwctl login`", err)
		}
		log.Fatalf("failed to load session from %s: %v (run `bwctl login`)", cfg.Storage.CookiePath, err)
	}

	client := browser.NewClient(
		sess,
		cfg.Browser.Headless,
		time.Duration(cfg.Browser.NavTimeoutSeconds)*time.Second,
		browser.NewPacer(secs(cfg.Pacing.PreNavMinSeconds), secs(cfg.Pacing.PreNavMaxSeconds)),
		browser.NewPacer(secs(cfg.Pacing.SettleMinSeconds), secs(cfg.Pacing.SettleMaxSeconds)),
	)

	sink, err := notifier.NewFromConfig(cfg.Alerts)
	if err != nil {
		log.Fatalf("failed to configure alerts: %v", err)
	}

	states := dedup.NewStore(cfg.Storage.StatePath, cfg.Storage.MaxSeen)

	recs, err := records.Open(cfg.Storage.RecordsPath)
	if err != nil {
		log.Fatalf("failed to open reply records: %v", err)
	}

	arch, err := archive.Open(cfg.Storage.ArchivePath)
	if err != nil {
		log.Warnf("archive disabled: %v", err)
		arch = nil
	} else {
		defer arch.Close()
	}

	a := app.New(cfg, log, client, sink, states, recs, arch)

	sched := scheduler.New(log)
	if len(cfg.Watch.Targets) > 0 {
		if err := sched.AddWatchJob(cfg.Watch.IntervalMinutes, a.WatchCycle); err != nil {
			log.Fatalf("failed to schedule watch job: %v", err)
		}
	}
	if cfg.Mentions.Enabled {
		if err := sched.AddMentionJob(cfg.Mentions.IntervalSeconds, a.MentionCycle); err != nil {
			log.Fatalf("failed to schedule mention job: %v", err)
		}
	}
	if len(cfg.Watch.Targets) == 0 && !cfg.Mentions.Enabled {
		log.Fatal("nothing to do: no watch targets and mentions disabled")
	}

	sched.Start()
	log.Info("birdwatch running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	<-sched.Stop().Done()
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
