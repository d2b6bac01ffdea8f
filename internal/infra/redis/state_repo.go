package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/domain/ports/repository"
	"ai-coding-tutor/internal/infra/metrics"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps user records in Redis as JSON values. Records do not
// expire; the retention window bounds their size instead.
type StateRepo struct {
	client RedisClient
}

func NewStateRepo(client RedisClient) *StateRepo {
	return &StateRepo{client: client}
}

func stateKey(userID string) string {
	return fmt.Sprintf("user_state:%s", userID)
}

func (s *StateRepo) Load(ctx context.Context, userID string) (*model.UserState, error) {
	data, err := s.client.Get(ctx, stateKey(userID))
	if errors.Is(err, redis.Nil) {
		metrics.IncStateOp("load", nil)
		return nil, domain.ErrNotFound
	}
	metrics.IncStateOp("load", err)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrStorage, userID, err)
	}

	var state model.UserState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, userID, err)
	}
	return &state, nil
}

func (s *StateRepo) Save(ctx context.Context, state *model.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	err = s.client.Set(ctx, stateKey(state.UserID), data, 0)
	metrics.IncStateOp("save", err)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrStorage, state.UserID, err)
	}
	return nil
}

func (s *StateRepo) Delete(ctx context.Context, userID string) error {
	err := s.client.Del(ctx, stateKey(userID))
	metrics.IncStateOp("delete", err)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrStorage, userID, err)
	}
	return nil
}

func (s *StateRepo) Close() error { return s.client.Close() }
