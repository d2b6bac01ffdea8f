// File: internal/usecase/state_uc.go
package usecase

import (
	"context"
	"strings"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
)

// RecordOwners is the serialization boundary for per-user records: all
// calls for one user id run one at a time against the same cached record.
type RecordOwners interface {
	View(ctx context.Context, userID string) (*model.UserState, error)
	Update(ctx context.Context, userID string, fn func(*model.UserState) error) (*model.UserState, error)
}

// Compile-time check
var _ StateUseCase = (*stateUC)(nil)

type StateUseCase interface {
	// Get returns the user's record, creating and persisting a default one
	// on first access.
	Get(ctx context.Context, userID string) (*model.UserState, error)
	// Update shallow-merges the provided fields and persists the result.
	Update(ctx context.Context, userID string, upd model.StateUpdate) (*model.UserState, error)
	// AppendMessage stamps, appends, and truncates to the retention window.
	AppendMessage(ctx context.Context, userID string, msg model.Message) (*model.UserState, error)
	// ClassifyConcept moves a concept between the mastered/struggling sets.
	ClassifyConcept(ctx context.Context, userID, concept string, action model.ConceptAction) (*model.UserState, error)
	// Reset replaces the record with defaults, preserving the user id.
	Reset(ctx context.Context, userID string) (*model.UserState, error)
}

type stateUC struct {
	owners RecordOwners
	window int // conversation history retention window
}

func NewStateUseCase(owners RecordOwners, retentionWindow int) *stateUC {
	if retentionWindow <= 0 {
		retentionWindow = 50
	}
	return &stateUC{owners: owners, window: retentionWindow}
}

func (s *stateUC) Get(ctx context.Context, userID string) (*model.UserState, error) {
	return s.owners.View(ctx, userID)
}

func (s *stateUC) Update(ctx context.Context, userID string, upd model.StateUpdate) (*model.UserState, error) {
	if upd.SkillLevel != nil && !upd.SkillLevel.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return s.owners.Update(ctx, userID, func(state *model.UserState) error {
		state.Apply(upd)
		return nil
	})
}

func (s *stateUC) AppendMessage(ctx context.Context, userID string, msg model.Message) (*model.UserState, error) {
	switch msg.Role {
	case "user", "assistant", "system":
	default:
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return s.owners.Update(ctx, userID, func(state *model.UserState) error {
		state.AppendMessage(msg, s.window)
		return nil
	})
}

func (s *stateUC) ClassifyConcept(ctx context.Context, userID, concept string, action model.ConceptAction) (*model.UserState, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" || !action.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return s.owners.Update(ctx, userID, func(state *model.UserState) error {
		state.ClassifyConcept(concept, action)
		return nil
	})
}

func (s *stateUC) Reset(ctx context.Context, userID string) (*model.UserState, error) {
	return s.owners.Update(ctx, userID, func(state *model.UserState) error {
		state.Reset()
		return nil
	})
}
