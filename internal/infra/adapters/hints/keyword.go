// Package hints derives suggested state updates from a student's message
// by plain substring matching over a fixed vocabulary. It is deliberately
// naive: "go" inside another word matches too. Callers treat the output
// as a hint, and the component sits behind adapter.UpdateHinter so a real
// classifier can replace it without touching the orchestration flow.
package hints

import (
	"strings"

	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/domain/ports/adapter"
)

var _ adapter.UpdateHinter = (*KeywordHinter)(nil)

// Order matters: the first vocabulary entry found in the text wins, so
// longer names shadow their substrings (JavaScript before Java).
var defaultLanguages = []string{
	"JavaScript", "TypeScript", "Python", "Java", "C++", "C#",
	"Rust", "Ruby", "Kotlin", "Swift", "PHP", "SQL", "Go",
}

var defaultTopics = []string{
	"pointers", "recursion", "closures", "inheritance", "promises",
	"async", "arrays", "linked lists", "trees", "graphs",
	"sorting", "searching", "dynamic programming", "data structures",
	"algorithms", "loops", "functions", "classes", "variables",
	"memory management",
}

type KeywordHinter struct {
	languages []string
	topics    []string
}

func NewKeywordHinter() *KeywordHinter {
	return &KeywordHinter{languages: defaultLanguages, topics: defaultTopics}
}

// NewKeywordHinterWith overrides the vocabularies; empty slices keep the defaults.
func NewKeywordHinterWith(languages, topics []string) *KeywordHinter {
	h := NewKeywordHinter()
	if len(languages) > 0 {
		h.languages = languages
	}
	if len(topics) > 0 {
		h.topics = topics
	}
	return h
}

func (h *KeywordHinter) Suggest(text string) model.StateUpdate {
	lower := strings.ToLower(text)

	var upd model.StateUpdate
	for _, lang := range h.languages {
		if strings.Contains(lower, strings.ToLower(lang)) {
			l := lang
			upd.CurrentLanguage = &l
			break
		}
	}
	for _, topic := range h.topics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			t := topic
			upd.CurrentTopic = &t
			break
		}
	}
	return upd
}
