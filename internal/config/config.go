package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration. It is loaded once at startup
// and never hot-reloaded.
type Config struct {
	Version  int            `toml:"version"`
	Watch    WatchConfig    `toml:"watch"`
	Mentions MentionsConfig `toml:"mentions"`
	Policy   PolicyConfig   `toml:"policy"`
	Browser  BrowserConfig  `toml:"browser"`
	Pacing   PacingConfig   `toml:"pacing"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Storage  StorageConfig  `toml:"storage"`
}

// WatchConfig configures passive keyword monitoring of list/profile feeds.
type WatchConfig struct {
	Targets         []string `toml:"targets"` // list or profile URLs
	IntervalMinutes int      `toml:"interval_minutes"`
}

// MentionsConfig configures mention polling and auto-replies.
type MentionsConfig struct {
	Enabled           bool   `toml:"enabled"`
	Handle            string `toml:"handle"` // monitored account, without @
	IntervalSeconds   int    `toml:"interval_seconds"`
	Reply             bool   `toml:"reply"`
	ReplyDelaySeconds int    `toml:"reply_delay_seconds"` // pause between replies
}

// PolicyConfig supplies the keyword set, author blacklist, spam phrase list
// and canned reply rules.
type PolicyConfig struct {
	Keywords     []string    `toml:"keywords"`
	Blacklist    []string    `toml:"blacklist"`
	SpamPhrases  []string    `toml:"spam_phrases"`
	Replies      []ReplyRule `toml:"replies"`
	DefaultReply string      `toml:"default_reply"`
}

// ReplyRule maps a substring of the mention text to a canned reply.
type ReplyRule struct {
	Contains string `toml:"contains"`
	Reply    string `toml:"reply"`
}

type BrowserConfig struct {
	Headless          bool `toml:"headless"`
	NavTimeoutSeconds int  `toml:"nav_timeout_seconds"`
}

// PacingConfig bounds the randomized delays between network-visible actions.
type PacingConfig struct {
	PreNavMinSeconds float64 `toml:"pre_nav_min_seconds"`
	PreNavMaxSeconds float64 `toml:"pre_nav_max_seconds"`
	SettleMinSeconds float64 `toml:"settle_min_seconds"`
	SettleMaxSeconds float64 `toml:"settle_max_seconds"`
	TypeMinMillis    int     `toml:"type_min_millis"`
	TypeMaxMillis    int     `toml:"type_max_millis"`
}

type AlertsConfig struct {
	Provider string         `toml:"provider"` // "telegram", "smtp" or "none"
	Telegram TelegramConfig `toml:"telegram"`
	SMTP     SMTPConfig     `toml:"smtp"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// StorageConfig locates the durable state files. Empty fields are filled
// with defaults under the config directory.
type StorageConfig struct {
	CookiePath  string `toml:"cookie_path"`
	StatePath   string `toml:"state_path"`
	RecordsPath string `toml:"records_path"`
	ArchivePath string `toml:"archive_path"`
	MaxSeen     int    `toml:"max_seen"` // dedup ledger retention cap
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Watch: WatchConfig{
			Targets:         []string{},
			IntervalMinutes: 30,
		},
		Mentions: MentionsConfig{
			Enabled:           false,
			IntervalSeconds:   60,
			Reply:             false,
			ReplyDelaySeconds: 30,
		},
		Policy: PolicyConfig{
			Keywords:     []string{},
			Blacklist:    []string{},
			SpamPhrases:  []string{},
			Replies:      []ReplyRule{},
			DefaultReply: "Thanks for the mention! How can I help?",
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavTimeoutSeconds: 30,
		},
		Pacing: PacingConfig{
			PreNavMinSeconds: 1,
			PreNavMaxSeconds: 3,
			SettleMinSeconds: 3,
			SettleMaxSeconds: 6,
			TypeMinMillis:    30,
			TypeMaxMillis:    150,
		},
		Alerts: AlertsConfig{
			Provider: "none",
			SMTP:     SMTPConfig{Port: 587},
		},
		Storage: StorageConfig{
			MaxSeen: 200,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "birdwatch"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk and fills in default storage paths.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.fillStorageDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) fillStorageDefaults() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if c.Storage.CookiePath == "" {
		c.Storage.CookiePath = filepath.Join(dir, "cookies.json")
	}
	if c.Storage.StatePath == "" {
		c.Storage.StatePath = filepath.Join(dir, "state.json")
	}
	if c.Storage.RecordsPath == "" {
		c.Storage.RecordsPath = filepath.Join(dir, "replies.json")
	}
	if c.Storage.ArchivePath == "" {
		c.Storage.ArchivePath = filepath.Join(dir, "archive.db")
	}
	if c.Storage.MaxSeen <= 0 {
		c.Storage.MaxSeen = 200
	}

	return nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
