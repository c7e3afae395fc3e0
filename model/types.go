package model

import (
	"sort"
	"strings"
)

// Chat roles used by training records. A well-formed record starts with
// exactly these three roles, in this order.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is a chat-format training record: a message sequence plus the
// identifier of the source document it was derived from.
//
// Records are value objects. Pipeline stages never mutate a record in
// place; they classify, drop or copy.
type Record struct {
	Messages []Message `json:"messages"`
	Source   string    `json:"source,omitempty"`
}

// HasChatShape reports whether the record carries at least the
// system/user/assistant prefix that all downstream stages rely on.
// It does not check role names or content; that is the validator's job.
func (r Record) HasChatShape() bool {
	return len(r.Messages) >= 3
}

// Answer returns the assistant turn content, or "" if the record is too
// short. Deduplication and quality filtering operate on this field.
func (r Record) Answer() string {
	if !r.HasChatShape() {
		return ""
	}
	return r.Messages[2].Content
}

// Raw is an unconverted record as produced by a source provider.
// Keys are free-form; the pipeline only reads a configured content key.
type Raw map[string]any

// Text returns the string value under key, or "" if absent or not a string.
func (r Raw) Text(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Int returns the integer value under key, tolerating the float64 that
// encoding/json produces for numbers.
func (r Raw) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// NewRecord builds a three-turn chat record from a question/answer pair.
func NewRecord(systemPrompt, question, answer, source string) Record {
	return Record{
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: question},
			{Role: RoleAssistant, Content: answer},
		},
		Source: source,
	}
}

// Sources returns the sorted set of distinct source identifiers across
// records that have chat shape.
func Sources(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if !r.HasChatShape() {
			continue
		}
		seen[r.Source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// TrimEmpty reports whether a content string is empty after trimming
// whitespace. Shared by validator and converter.
func TrimEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
