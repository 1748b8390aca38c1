package extractor

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when extraction breaks

// ItemSelectors is the fallback chain for locating content items. Selectors
// are tried in priority order; extraction stops at the first selector that
// yields at least one match.
var ItemSelectors = []string{
	`article[data-testid="tweet"]`,
	`[data-testid="tweet"]`,
	`[role="article"]`,
}

const (
	// Item content selectors
	ItemText      = `[data-testid="tweetText"]`
	ItemAuthor    = `[data-testid="User-Name"]`
	ItemTimestamp = `time`
	ItemLink      = `a[href*="/status/"]`

	// Engagement selectors
	ReplyCount   = `[data-testid="reply"]`
	RetweetCount = `[data-testid="retweet"]`
	LikeCount    = `[data-testid="like"]`
)
