// Package extractor pulls normalized content items out of a rendered page.
package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/openclaw/birdwatch/internal/types"
)

// TimestampUnknown marks an item whose timestamp could not be extracted.
const TimestampUnknown = "Unknown"

// Page is the rendered-page capability the extractor needs. Satisfied by
// *browser.Page.
type Page interface {
	Evaluate(js string, out any) error
}

// Extractor runs structural queries against rendered pages. It is stateless
// and deterministic given identical page state.
type Extractor struct{}

// New creates a new extractor
func New() *Extractor {
	return &Extractor{}
}

// rawItem is the shape produced by the injected extraction script.
type rawItem struct {
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
	Likes     string `json:"likes"`
	Replies   string `json:"replies"`
	Retweets  string `json:"retweets"`
	IsReply   bool   `json:"isReply"`
}

// Extract pulls all visible content items from the page. Items with empty
// text are dropped. Zero items is a valid outcome, not an error.
func (e *Extractor) Extract(page Page, sourceURL string) ([]types.Item, error) {
	var raw []rawItem
	if err := page.Evaluate(extractScript(), &raw); err != nil {
		return nil, fmt.Errorf("extractor: evaluate: %w", err)
	}

	items := make([]types.Item, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}

		items = append(items, types.Item{
			Text:      text,
			Permalink: r.Permalink,
			Timestamp: normalizeTimestamp(r.Timestamp),
			Author:    strings.TrimPrefix(r.Author, "@"),
			SourceURL: sourceURL,
			Likes:     parseMetric(r.Likes),
			Replies:   parseMetric(r.Replies),
			Retweets:  parseMetric(r.Retweets),
			IsReply:   r.IsReply,
		})
	}

	return items, nil
}

// extractScript builds the injected JS. Every selector is embedded from
// selectors.go so the DOM coupling lives in one place.
func extractScript() string {
	chain, _ := json.Marshal(ItemSelectors)
	fields, _ := json.Marshal(map[string]string{
		"text":      ItemText,
		"author":    ItemAuthor,
		"timestamp": ItemTimestamp,
		"link":      ItemLink,
		"likes":     LikeCount,
		"replies":   ReplyCount,
		"retweets":  RetweetCount,
	})

	return `
		(function() {
			const chain = ` + string(chain) + `;
			const sel = ` + string(fields) + `;

			let elements = [];
			for (const selector of chain) {
				elements = document.querySelectorAll(selector);
				if (elements.length > 0) break;
			}

			const getMetric = (el, selector) => {
				const metricEl = el.querySelector(selector);
				if (!metricEl) return '0';
				const ariaLabel = metricEl.getAttribute('aria-label');
				if (ariaLabel) {
					const match = ariaLabel.match(/^([\d,.]+[KkMm]?)/);
					if (match) return match[1];
				}
				return metricEl.textContent?.trim() || '0';
			};

			const results = [];
			elements.forEach(el => {
				try {
					const textEl = el.querySelector(sel.text);
					const link = el.querySelector(sel.link);
					const timeEl = el.querySelector(sel.timestamp);

					let author = '';
					const userNameEl = el.querySelector(sel.author);
					if (userNameEl) {
						const handleLink = userNameEl.querySelector('a[href^="/"]');
						if (handleLink) {
							author = handleLink.getAttribute('href')?.replace('/', '') || '';
						}
					}

					results.push({
						text: textEl ? textEl.textContent.trim() : '',
						permalink: link?.href || '',
						timestamp: timeEl?.getAttribute('datetime') || '',
						author: author,
						likes: getMetric(el, sel.likes),
						replies: getMetric(el, sel.replies),
						retweets: getMetric(el, sel.retweets),
						isReply: el.textContent?.includes('Replying to') || false
					});
				} catch (e) {
					// Skip malformed elements rather than failing the batch
				}
			});

			return results;
		})()
	`
}

// normalizeTimestamp converts whatever the page exposed into RFC3339, or
// TimestampUnknown when absent or unparsable.
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimestampUnknown
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return TimestampUnknown
	}

	return t.UTC().Format(time.RFC3339)
}

// parseMetric converts abbreviated metric strings like "1.2K", "5.7M", or "423"
// to integers. Unparsable values default to 0 rather than failing extraction.
func parseMetric(s string) int {
	if s == "" {
		return 0
	}

	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	multiplier := 1.0
	if strings.HasSuffix(strings.ToUpper(s), "K") {
		multiplier = 1000
		s = s[:len(s)-1]
	} else if strings.HasSuffix(strings.ToUpper(s), "M") {
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return int(value * multiplier)
}
