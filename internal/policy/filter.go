// Package policy classifies extracted items against the configured
// interest criteria.
package policy

import (
	"strings"

	"github.com/openclaw/birdwatch/internal/types"
)

// Reason explains why an item was ignored. First matching reason wins.
type Reason string

const (
	ReasonBlacklist  Reason = "blacklist"
	ReasonSpam       Reason = "spam"
	ReasonUntargeted Reason = "untargeted"
	ReasonNoKeyword  Reason = "nokeyword"
)

// addressedTokens is how many leading whitespace-delimited tokens are
// checked for the monitored handle. A mention outside this window in a
// reply chain is an incidental tag, not an addressed mention.
const addressedTokens = 3

// Policy is the read-only classification configuration, supplied at startup.
type Policy struct {
	Keywords    []string
	Blacklist   []string
	SpamPhrases []string
	Handle      string // monitored handle, without @
}

// Result is the classification outcome. Exactly one of Relevant or a
// non-empty Reason is set.
type Result struct {
	Relevant bool
	Reason   Reason
	Matched  []string // keywords that matched, when relevant
}

// Classify is total: it always returns a result and never fails.
func Classify(it types.Item, p Policy) Result {
	textLower := strings.ToLower(it.Text)

	author := strings.ToLower(strings.TrimPrefix(it.Author, "@"))
	for _, b := range p.Blacklist {
		if author != "" && author == strings.ToLower(strings.TrimPrefix(b, "@")) {
			return Result{Reason: ReasonBlacklist}
		}
	}

	for _, phrase := range p.SpamPhrases {
		if phrase != "" && strings.Contains(textLower, strings.ToLower(phrase)) {
			return Result{Reason: ReasonSpam}
		}
	}

	// Only replies that tag the monitored handle can be untargeted; a
	// reply that never mentions it is judged on keywords alone.
	if it.IsReply && containsHandle(textLower, p.Handle) && !addressed(it.Text, p.Handle) {
		return Result{Reason: ReasonUntargeted}
	}

	var matched []string
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(textLower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return Result{Reason: ReasonNoKeyword}
	}

	return Result{Relevant: true, Matched: matched}
}

// containsHandle reports whether the monitored handle is tagged anywhere
// in the lowercased text.
func containsHandle(textLower, handle string) bool {
	if handle == "" {
		return false
	}
	return strings.Contains(textLower, "@"+strings.ToLower(strings.TrimPrefix(handle, "@")))
}

// addressed reports whether the monitored handle appears among the first
// few tokens of the text. With no configured handle every reply counts as
// addressed.
func addressed(text, handle string) bool {
	if handle == "" {
		return true
	}

	want := "@" + strings.ToLower(strings.TrimPrefix(handle, "@"))
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) > addressedTokens {
		tokens = tokens[:addressedTokens]
	}
	for _, tok := range tokens {
		if strings.TrimRight(tok, ".,:;!?") == want {
			return true
		}
	}
	return false
}
