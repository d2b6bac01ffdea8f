package repository

import (
	"context"

	"ai-coding-tutor/internal/domain/model"
)

// StateRepository is the durable key-value backing store for user records.
// Implementations serialize the whole record per user id; no semantics
// beyond single-key read-modify-write are required. Load returns
// domain.ErrNotFound for a user id never saved.
type StateRepository interface {
	Load(ctx context.Context, userID string) (*model.UserState, error)
	Save(ctx context.Context, state *model.UserState) error
	Delete(ctx context.Context, userID string) error
	Close() error
}
