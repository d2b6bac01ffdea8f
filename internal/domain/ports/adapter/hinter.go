package adapter

import "ai-coding-tutor/internal/domain/model"

// UpdateHinter proposes partial state changes from a student's free text.
// Implementations are pure heuristics; false positives are acceptable and
// callers treat the result as a suggestion, not a fact.
type UpdateHinter interface {
	Suggest(text string) model.StateUpdate
}
