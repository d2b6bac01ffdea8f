package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/domain/ports/repository"
	"ai-coding-tutor/internal/infra/metrics"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo persists user records as JSON values in an embedded BadgerDB.
type StateRepo struct {
	db *badger.DB
}

// Open creates the database directory if needed and opens the store.
func Open(dir string) (*StateRepo, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &StateRepo{db: db}, nil
}

// NewStateRepo wraps an already-open handle; used by tests sharing one DB.
func NewStateRepo(db *badger.DB) *StateRepo {
	return &StateRepo{db: db}
}

func stateKey(userID string) []byte {
	return []byte("user_state:" + userID)
}

func (r *StateRepo) Load(ctx context.Context, userID string) (*model.UserState, error) {
	var state model.UserState
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	metrics.IncStateOp("load", err)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrStorage, userID, err)
	}
	return &state, nil
}

func (r *StateRepo) Save(ctx context.Context, state *model.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(state.UserID), data)
	})
	metrics.IncStateOp("save", err)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrStorage, state.UserID, err)
	}
	return nil
}

func (r *StateRepo) Delete(ctx context.Context, userID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(stateKey(userID))
	})
	metrics.IncStateOp("delete", err)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrStorage, userID, err)
	}
	return nil
}

func (r *StateRepo) Close() error { return r.db.Close() }
