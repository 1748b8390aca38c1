// Command bwctl is a dev CLI for birdwatch maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/joho/godotenv"

	"github.com/openclaw/birdwatch/internal/app"
	"github.com/openclaw/birdwatch/internal/browser"
	"github.com/openclaw/birdwatch/internal/config"
	"github.com/openclaw/birdwatch/internal/dedup"
	"github.com/openclaw/birdwatch/internal/logging"
	"github.com/openclaw/birdwatch/internal/notifier"
	"github.com/openclaw/birdwatch/internal/records"
	"github.com/openclaw/birdwatch/internal/session"
	"github.com/openclaw/birdwatch/internal/types"
	"github.com/openclaw/birdwatch/internal/workflow"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	switch os.Args[1] {
	case "login":
		runLogin()
	case "bot-test":
		runBotTest()
	case "check":
		runCheck()
	case "mentions":
		runMentions()
	case "reply":
		if len(os.Args) < 4 {
			fmt.Println("Usage: bwctl reply <url> <text>")
			os.Exit(1)
		}
		runReply(os.Args[2], os.Args[3])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: bwctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login              Open a browser to capture X.com session cookies")
	fmt.Println("  bot-test           Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  check              Run one watch cycle now")
	fmt.Println("  mentions           Run one mention cycle now")
	fmt.Println("  reply <url> <text> Reply to a single post")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runLogin() {
	cfg := loadConfig()

	fmt.Println("Opening browser for X.com login...")
	fmt.Println("Log in; cookies are captured once you land on the home timeline.")

	if err := session.Capture(context.Background(), cfg.Storage.CookiePath); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session saved to %s\n", cfg.Storage.CookiePath)
}

func runBotTest() {
	fmt.Println("Opening bot.sannysoft.com with stealth browser options...")

	opts := browser.Options(false) // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate("https://bot.sannysoft.com"),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to navigate: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()
}

func buildApp(cfg *config.Config) *app.App {
	log := logging.New()

	sess, err := session.Load(cfg.Storage.CookiePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load session: %v (run `bwctl login`)\n", err)
		os.Exit(1)
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
		fmt.Fprintf(os.Stderr, "failed to configure alerts: %v\n", err)
		os.Exit(1)
	}

	states := dedup.NewStore(cfg.Storage.StatePath, cfg.Storage.MaxSeen)

	recs, err := records.Open(cfg.Storage.RecordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open reply records: %v\n", err)
		os.Exit(1)
	}

	return app.New(cfg, log, client, sink, states, recs, nil)
}

func runCheck() {
	cfg := loadConfig()
	a := buildApp(cfg)

	if err := a.WatchCycle(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "watch cycle failed: %v\n", err)
		os.Exit(1)
	}
}

func runMentions() {
	cfg := loadConfig()
	a := buildApp(cfg)

	if err := a.MentionCycle(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mention cycle failed: %v\n", err)
		os.Exit(1)
	}
}

func runReply(url, text string) {
	cfg := loadConfig()
	log := logging.New()

	sess, err := session.Load(cfg.Storage.CookiePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load session: %v (run `bwctl login`)\n", err)
		os.Exit(1)
	}

	client := browser.NewClient(
		sess,
		cfg.Browser.Headless,
		time.Duration(cfg.Browser.NavTimeoutSeconds)*time.Second,
		browser.NewPacer(secs(cfg.Pacing.PreNavMinSeconds), secs(cfg.Pacing.PreNavMaxSeconds)),
		browser.NewPacer(secs(cfg.Pacing.SettleMinSeconds), secs(cfg.Pacing.SettleMaxSeconds)),
	)

	recs, err := records.Open(cfg.Storage.RecordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open reply records: %v\n", err)
		os.Exit(1)
	}

	typing := browser.NewPacer(
		time.Duration(cfg.Pacing.TypeMinMillis)*time.Millisecond,
		time.Duration(cfg.Pacing.TypeMaxMillis)*time.Millisecond,
	)

	wf := workflow.New(workflow.NewChromeDriver(client, typing), recs, log)

	// Records are keyed by the status id portion of the URL.
	id := types.Item{Permalink: url}.ID()

	result, err := wf.Run(context.Background(), id, url, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reply failed at step %s: %v\n", result.FailedStep, err)
		os.Exit(1)
	}

	fmt.Println("Reply posted.")
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
