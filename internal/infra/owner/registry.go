// Package owner implements the per-user serialization boundary: a keyed
// registry of record owners, one per user id. Each owner guards its record
// with a mutex, loads it lazily from durable storage, and caches it in
// memory until an idle timeout. All operations against one user's record
// therefore run one at a time; different users proceed concurrently.
package owner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/model"
	"ai-coding-tutor/internal/domain/ports/repository"
	"ai-coding-tutor/internal/infra/metrics"
)

type recordOwner struct {
	mu       sync.Mutex
	state    *model.UserState // nil until loaded
	lastUsed time.Time        // guarded by Registry.mu
}

type Registry struct {
	repo    repository.StateRepository
	idleTTL time.Duration
	log     *zerolog.Logger

	mu     sync.Mutex
	owners map[string]*recordOwner

	done chan struct{}
}

func NewRegistry(repo repository.StateRepository, idleTTL time.Duration, log *zerolog.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &Registry{
		repo:    repo,
		idleTTL: idleTTL,
		log:     log,
		owners:  make(map[string]*recordOwner),
		done:    make(chan struct{}),
	}
}

// Update runs fn against the user's record while holding its owner lock,
// then persists the record. A record never seen before is created with
// defaults and persisted first, so fn always sees a valid state.
// The returned state is a copy safe to use after the lock is released.
func (r *Registry) Update(ctx context.Context, userID string, fn func(*model.UserState) error) (*model.UserState, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	o := r.owner(userID)
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == nil {
		state, err := r.repo.Load(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			state = model.NewUserState(userID)
			if err := r.repo.Save(ctx, state); err != nil {
				return nil, err
			}
			r.log.Debug().Str("user_id", userID).Msg("created default state record")
		case err != nil:
			return nil, err
		}
		o.state = state
		metrics.IncOwnerLoad()
	}

	if fn != nil {
		if err := fn(o.state); err != nil {
			return nil, err
		}
		if err := r.repo.Save(ctx, o.state); err != nil {
			return nil, err
		}
	}
	return o.state.Clone(), nil
}

// View returns a copy of the user's record, lazily creating it on first
// access like Update does.
func (r *Registry) View(ctx context.Context, userID string) (*model.UserState, error) {
	return r.Update(ctx, userID, nil)
}

func (r *Registry) owner(userID string) *recordOwner {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.owners[userID]
	if o == nil {
		o = &recordOwner{}
		r.owners[userID] = o
		metrics.SetOwnersCached(len(r.owners))
	}
	o.lastUsed = time.Now()
	return o
}

// Start launches the janitor that evicts idle owners. Stop with Close.
func (r *Registry) Start(ctx context.Context) {
	go r.loop(ctx)
}

func (r *Registry) loop(ctx context.Context) {
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			if n := r.evictIdle(time.Now()); n > 0 {
				r.log.Debug().Int("evicted", n).Msg("record owners evicted")
			}
		}
	}
}

// evictIdle drops owners untouched for idleTTL. An owner is only removed
// when its lock can be taken immediately, so in-flight operations are
// never interrupted; lastUsed is rechecked under the registry lock to
// keep recently handed-out owners resident.
func (r *Registry) evictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, o := range r.owners {
		if now.Sub(o.lastUsed) < r.idleTTL {
			continue
		}
		if !o.mu.TryLock() {
			continue
		}
		delete(r.owners, id)
		o.mu.Unlock()
		evicted++
	}
	metrics.AddOwnerEvictions(evicted)
	metrics.SetOwnersCached(len(r.owners))
	return evicted
}

func (r *Registry) Close() {
	close(r.done)
}
