package policy

import "strings"

// ReplyRule maps a substring of the mention text to a canned reply.
type ReplyRule struct {
	Contains string
	Reply    string
}

// ReplyFor picks the canned reply for a mention. Rules are tried in order;
// the first whose Contains matches case-insensitively wins, otherwise the
// fallback is returned.
func ReplyFor(text string, rules []ReplyRule, fallback string) string {
	textLower := strings.ToLower(text)
	for _, r := range rules {
		if r.Contains != "" && strings.Contains(textLower, strings.ToLower(r.Contains)) {
			return r.Reply
		}
	}
	return fallback
}
