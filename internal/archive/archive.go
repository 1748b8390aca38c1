// Package archive keeps a local SQLite history of extracted items and reply
// attempts. Supplementary: the JSON state files remain the authoritative
// dedup and reply-gating state.
package archive

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openclaw/birdwatch/internal/types"
)

// Archive handles all database operations
type Archive struct {
	db *sql.DB
}

// Open creates an archive with a SQLite backend at dbPath.
func Open(dbPath string) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return a, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.db.Close()
}

// migrate creates the database schema
func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		fingerprint TEXT PRIMARY KEY,
		author TEXT,
		text TEXT NOT NULL,
		permalink TEXT,
		timestamp TEXT,
		source_url TEXT,
		likes INTEGER,
		replies INTEGER,
		retweets INTEGER,
		is_reply BOOLEAN,
		first_seen DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reply_attempts (
		target_id TEXT PRIMARY KEY,
		attempted_at DATETIME NOT NULL,
		outcome TEXT NOT NULL,
		failed_step TEXT,
		replied_text TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_items_first_seen ON items(first_seen);
	CREATE INDEX IF NOT EXISTS idx_items_author ON items(author);
	`

	_, err := a.db.Exec(schema)
	return err
}

// SaveItem upserts one extracted item keyed by its fingerprint. Engagement
// counters are refreshed on conflict.
func (a *Archive) SaveItem(fingerprint string, it types.Item) error {
	_, err := a.db.Exec(`
		INSERT INTO items (fingerprint, author, text, permalink, timestamp,
			source_url, likes, replies, retweets, is_reply, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			likes = excluded.likes,
			replies = excluded.replies,
			retweets = excluded.retweets
	`, fingerprint, it.Author, it.Text, it.Permalink, it.Timestamp,
		it.SourceURL, it.Likes, it.Replies, it.Retweets, it.IsReply, time.Now().UTC())

	return err
}

// SaveAttempt records a reply attempt outcome for history.
func (a *Archive) SaveAttempt(targetID, outcome, failedStep, repliedText string) error {
	_, err := a.db.Exec(`
		INSERT INTO reply_attempts (target_id, attempted_at, outcome, failed_step, replied_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(target_id) DO NOTHING
	`, targetID, time.Now().UTC(), outcome, failedStep, repliedText)

	return err
}

// RecentItems returns the most recently archived items.
func (a *Archive) RecentItems(limit int) ([]types.Item, error) {
	rows, err := a.db.Query(`
		SELECT author, text, permalink, timestamp, source_url,
			likes, replies, retweets, is_reply
		FROM items
		ORDER BY first_seen DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		var it types.Item
		if err := rows.Scan(&it.Author, &it.Text, &it.Permalink, &it.Timestamp,
			&it.SourceURL, &it.Likes, &it.Replies, &it.Retweets, &it.IsReply); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
