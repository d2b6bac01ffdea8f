package owner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
)

// ---- Fakes ----

type memStateRepo struct {
	mu      sync.Mutex
	records map[string]*model.UserState
	saves   int
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{records: map[string]*model.UserState{}}
}

func (m *memStateRepo) Load(ctx context.Context, userID string) (*model.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memStateRepo) Save(ctx context.Context, state *model.UserState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[state.UserID] = state.Clone()
	m.saves++
	return nil
}

func (m *memStateRepo) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}

func (m *memStateRepo) Close() error { return nil }

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// ---- Tests ----

func TestViewCreatesAndPersistsDefault(t *testing.T) {
	repo := newMemStateRepo()
	r := NewRegistry(repo, time.Minute, newLogger())

	state, err := r.View(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if state.UserID != "fresh" || state.SkillLevel != model.SkillBeginner {
		t.Fatalf("unexpected default: %+v", state)
	}
	if _, err := repo.Load(context.Background(), "fresh"); err != nil {
		t.Fatalf("default record not persisted: %v", err)
	}
}

func TestUpdatePersistsMutation(t *testing.T) {
	repo := newMemStateRepo()
	r := NewRegistry(repo, time.Minute, newLogger())

	_, err := r.Update(context.Background(), "u", func(s *model.UserState) error {
		s.CurrentLanguage = "Go"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	stored, err := repo.Load(context.Background(), "u")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.CurrentLanguage != "Go" {
		t.Fatalf("mutation not persisted: %+v", stored)
	}
}

func TestUpdateSerializesPerUser(t *testing.T) {
	repo := newMemStateRepo()
	r := NewRegistry(repo, time.Minute, newLogger())
	ctx := context.Background()

	const workers = 16
	const perWorker = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := r.Update(ctx, "shared", func(s *model.UserState) error {
					s.AppendMessage(model.Message{Role: "user", Content: "x"}, 0)
					return nil
				})
				if err != nil {
					t.Errorf("Update: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	state, _ := r.View(ctx, "shared")
	if got := len(state.ConversationHistory); got != workers*perWorker {
		t.Fatalf("lost updates: history = %d, want %d", got, workers*perWorker)
	}
}

func TestReturnedStateIsACopy(t *testing.T) {
	repo := newMemStateRepo()
	r := NewRegistry(repo, time.Minute, newLogger())
	ctx := context.Background()

	first, _ := r.View(ctx, "u")
	first.CurrentLanguage = "tampered"

	second, _ := r.View(ctx, "u")
	if second.CurrentLanguage == "tampered" {
		t.Fatalf("caller mutation leaked into cached record")
	}
}

func TestEvictIdleDropsOnlyStaleOwners(t *testing.T) {
	repo := newMemStateRepo()
	r := NewRegistry(repo, time.Minute, newLogger())
	ctx := context.Background()

	if _, err := r.View(ctx, "stale"); err != nil {
		t.Fatalf("View: %v", err)
	}
	if _, err := r.View(ctx, "active"); err != nil {
		t.Fatalf("View: %v", err)
	}

	r.mu.Lock()
	r.owners["stale"].lastUsed = time.Now().Add(-2 * time.Minute)
	r.mu.Unlock()

	if n := r.evictIdle(time.Now()); n != 1 {
		t.Fatalf("evicted %d owners, want 1", n)
	}

	// The evicted record reloads from storage on next access.
	state, err := r.View(ctx, "stale")
	if err != nil {
		t.Fatalf("View after evict: %v", err)
	}
	if state.UserID != "stale" {
		t.Fatalf("reload mismatch: %+v", state)
	}
}
