package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/varsilias/researchpaper/pkg/types"
)

const (
	UntitledTitle   = "Untitled Research Chat"
	EmptyPreview    = "No message content"
	MaxTags         = 5
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

	titleLimit   = 40
	previewLimit = 100
	ellipsis     = "..."
)

// Topic maps a canonical tag to the lowercase substrings that select it.
type Topic struct {
	Tag      string
	Keywords []string
}

// Vocabulary is the fixed tag list, in scan order.
var Vocabulary = []Topic{
	{Tag: "AI", Keywords: []string{"ai", "artificial intelligence"}},
	{Tag: "Machine Learning", Keywords: []string{"machine learning", "ml"}},
	{Tag: "Healthcare", Keywords: []string{"healthcare", "medical"}},
	{Tag: "Physics", Keywords: []string{"physics", "quantum"}},
	{Tag: "Environment", Keywords: []string{"climate", "environment"}},
	{Tag: "Finance", Keywords: []string{"finance", "economic"}},
	{Tag: "Psychology", Keywords: []string{"psychology", "mental health"}},
	{Tag: "Politics", Keywords: []string{"politics", "government"}},
	{Tag: "Social Media", Keywords: []string{"social media", "communication"}},
	{Tag: "Research", Keywords: []string{"research", "study"}},
}

// ExtractTags matches user messages against Vocabulary. Matching is plain
// substring search, so "ai" also fires on words like "said".
func ExtractTags(msgs []types.Message) []string {
	tags := make([]string, 0, MaxTags)
	seen := make(map[string]bool, len(Vocabulary))
	for _, m := range msgs {
		if m.Role != types.RoleUser {
			continue
		}
		content := strings.ToLower(m.Content)
		for _, topic := range Vocabulary {
			if seen[topic.Tag] || !containsAny(content, topic.Keywords) {
				continue
			}
			seen[topic.Tag] = true
			tags = append(tags, topic.Tag)
			if len(tags) == MaxTags {
				return tags
			}
		}
	}
	return tags
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// GeneratePreview returns the first user message clipped to 100 characters.
func GeneratePreview(msgs []types.Message) string {
	first, ok := types.FirstUser(msgs)
	if !ok || first == "" {
		return EmptyPreview
	}
	return clip(first, previewLimit)
}

// GenerateTitle returns the first sentence of the first user message,
// clipped to 40 characters.
func GenerateTitle(msgs []types.Message) string {
	first, ok := types.FirstUser(msgs)
	if !ok {
		return UntitledTitle
	}
	sentence, _, _ := strings.Cut(first, ".")
	if sentence == "" {
		return UntitledTitle
	}
	return clip(sentence, titleLimit)
}

// clip counts characters, not bytes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + ellipsis
}

// NewID derives an id from the creation time in milliseconds, moving forward
// until it does not collide with taken.
func NewID(now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if taken == nil || !taken(id) {
			return id
		}
		ms++
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// New builds a ChatSession from msgs. It does not check for emptiness.
func New(msgs []types.Message, now time.Time, taken func(string) bool) ChatSession {
	stored := make([]types.Message, len(msgs))
	copy(stored, msgs)
	return ChatSession{
		ID:        NewID(now, taken),
		Title:     GenerateTitle(msgs),
		Timestamp: FormatTimestamp(now),
		Messages:  stored,
		Preview:   GeneratePreview(msgs),
		Tags:      ExtractTags(msgs),
	}
}
