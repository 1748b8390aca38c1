package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openclaw/birdwatch/internal/types"
)

func TestClassifyKeywordMatch(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}}
	res := Classify(types.Item{Text: "talking about AI today"}, p)

	assert.True(t, res.Relevant)
	assert.Equal(t, []string{"AI"}, res.Matched)
}

func TestClassifyKeywordCaseInsensitive(t *testing.T) {
	p := Policy{Keywords: []string{"airdrop"}}
	res := Classify(types.Item{Text: "Biggest AIRDROP of the year"}, p)

	assert.True(t, res.Relevant)
}

func TestClassifyNoKeyword(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}}
	res := Classify(types.Item{Text: "nothing to see here"}, p)

	assert.False(t, res.Relevant)
	assert.Equal(t, ReasonNoKeyword, res.Reason)
}

func TestClassifySpamBeatsKeyword(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}, SpamPhrases: []string{"airdrop"}}
	res := Classify(types.Item{Text: "claim now, biggest airdrop for AI fans"}, p)

	assert.False(t, res.Relevant)
	assert.Equal(t, ReasonSpam, res.Reason)
}

func TestClassifyBlacklistBeatsEverything(t *testing.T) {
	p := Policy{
		Keywords:  []string{"AI"},
		Blacklist: []string{"@spammer"},
	}
	res := Classify(types.Item{Text: "great AI thread", Author: "spammer"}, p)

	assert.False(t, res.Relevant)
	assert.Equal(t, ReasonBlacklist, res.Reason)
}

func TestClassifyUntargetedReply(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}, Handle: "birdbot"}

	// Handle tagged mid-conversation, not addressed up front.
	res := Classify(types.Item{
		Text:    "totally agree with this take on AI cc @birdbot",
		IsReply: true,
	}, p)
	assert.Equal(t, ReasonUntargeted, res.Reason)

	// Addressed mention: handle within the first three tokens.
	res = Classify(types.Item{
		Text:    "hey @birdbot what do you think about AI?",
		IsReply: true,
	}, p)
	assert.True(t, res.Relevant)
}

func TestClassifyReplyWithoutHandleTag(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}, Handle: "birdbot"}

	// A reply in a watched feed that never tags the handle is judged on
	// keywords alone.
	res := Classify(types.Item{
		Text:    "love this take on AI, spot on",
		IsReply: true,
	}, p)

	assert.True(t, res.Relevant)
	assert.Equal(t, []string{"AI"}, res.Matched)
}

func TestClassifyNonReplyNotUntargeted(t *testing.T) {
	p := Policy{Keywords: []string{"AI"}, Handle: "birdbot"}
	res := Classify(types.Item{Text: "AI is neat, right @birdbot"}, p)

	assert.True(t, res.Relevant)
}

func TestClassifyTotal(t *testing.T) {
	// Always exactly one of Relevant / Reason, even on empty input.
	res := Classify(types.Item{}, Policy{})
	assert.False(t, res.Relevant)
	assert.Equal(t, ReasonNoKeyword, res.Reason)
}

func TestReplyFor(t *testing.T) {
	rules := []ReplyRule{
		{Contains: "hello", Reply: "Hey there!"},
		{Contains: "question", Reply: "Happy to help."},
	}

	assert.Equal(t, "Hey there!", ReplyFor("Hello @bot", rules, "fallback"))
	assert.Equal(t, "Happy to help.", ReplyFor("quick QUESTION for you", rules, "fallback"))
	assert.Equal(t, "fallback", ReplyFor("unrelated", rules, "fallback"))
}
