package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"stationhq.org/internal/obs"
)

// Keeper mediates between the orchestrator and the guard store. Store
// failures degrade to a process-local copy of the state so the login flow
// still completes; availability is preferred over strict accuracy of the
// lockout ladder.
type Keeper struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	local map[string]State
}

// KeeperOption configures Keeper behavior.
type KeeperOption func(*Keeper)

// WithKeeperClock overrides the time source (useful for tests).
func WithKeeperClock(fn func() time.Time) KeeperOption {
	return func(k *Keeper) {
		if fn != nil {
			k.now = fn
		}
	}
}

// NewKeeper wraps the given store.
func NewKeeper(store Store, opts ...KeeperOption) *Keeper {
	k := &Keeper{
		store: store,
		now:   time.Now,
		local: make(map[string]State),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Load fetches the guard state for the origin. A missing record is
// synthesized as a zero state and created in the store; an unreachable store
// yields the last locally observed state instead of an error.
func (k *Keeper) Load(ctx context.Context, originKey string) State {
	s, err := k.store.Find(ctx, originKey)
	switch {
	case err == nil:
		k.remember(s)
		return s
	case errors.Is(err, ErrNotFound):
		s = State{OriginKey: originKey, LastAttempt: k.now().UTC()}
		if createErr := k.store.Create(ctx, s); createErr != nil {
			k.logStoreError("guard state create failed", originKey, createErr)
		}
		k.remember(s)
		return s
	default:
		k.logStoreError("guard state read failed", originKey, err)
		return k.recall(originKey)
	}
}

// Save writes the state back. On store failure the state is retained
// locally so subsequent loads within this process still see it.
func (k *Keeper) Save(ctx context.Context, s State) {
	k.remember(s)
	if err := k.store.Update(ctx, s); err != nil {
		k.logStoreError("guard state update failed", s.OriginKey, err)
	}
}

func (k *Keeper) remember(s State) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.local[s.OriginKey] = s
}

func (k *Keeper) recall(originKey string) State {
	k.mu.Lock()
	defer k.mu.Unlock()
	if s, ok := k.local[originKey]; ok {
		return s
	}
	return State{OriginKey: originKey, LastAttempt: k.now().UTC()}
}

func (k *Keeper) logStoreError(msg, originKey string, err error) {
	obs.LogEvent(map[string]any{
		"level":  "warn",
		"msg":    msg,
		"origin": originKey,
		"error":  err.Error(),
	})
}
