package types

import "strings"

// Item represents a single piece of content extracted from a rendered page.
// Items are immutable after extraction; only their fingerprint is persisted.
type Item struct {
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"` // RFC3339, or "Unknown" when absent
	Author    string `json:"author"`
	SourceURL string `json:"source_url"`
	Likes     int    `json:"likes"`
	Replies   int    `json:"replies"`
	Retweets  int    `json:"retweets"`
	IsReply   bool   `json:"is_reply"`
}

// ID returns the status id portion of the permalink, or the whole permalink
// when it doesn't look like a status URL.
func (it Item) ID() string {
	if i := strings.LastIndex(it.Permalink, "/status/"); i >= 0 {
		id := it.Permalink[i+len("/status/"):]
		// Strip trailing path segments (e.g. /photo/1)
		if j := strings.IndexByte(id, '/'); j >= 0 {
			id = id[:j]
		}
		if id != "" {
			return id
		}
	}
	return it.Permalink
}
