package guard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyStore struct {
	inner   *Memory
	failing bool
}

func (f *flakyStore) Find(ctx context.Context, key string) (State, error) {
	if f.failing {
		return State{}, errors.New("connection refused")
	}
	return f.inner.Find(ctx, key)
}

func (f *flakyStore) Create(ctx context.Context, s State) error {
	if f.failing {
		return errors.New("connection refused")
	}
	return f.inner.Create(ctx, s)
}

func (f *flakyStore) Update(ctx context.Context, s State) error {
	if f.failing {
		return errors.New("connection refused")
	}
	return f.inner.Update(ctx, s)
}

func TestKeeperCreatesMissingState(t *testing.T) {
	store := NewMemory()
	k := NewKeeper(store, WithKeeperClock(func() time.Time { return base }))

	s := k.Load(context.Background(), "10.1.1.1")
	if s.OriginKey != "10.1.1.1" || s.FailedAttempts != 0 {
		t.Fatalf("unexpected synthesized state: %+v", s)
	}
	if _, err := store.Find(context.Background(), "10.1.1.1"); err != nil {
		t.Fatalf("state should have been created in the store: %v", err)
	}
}

func TestKeeperFallsBackToLocalOnStoreFailure(t *testing.T) {
	store := &flakyStore{inner: NewMemory()}
	k := NewKeeper(store, WithKeeperClock(func() time.Time { return base }))

	s := k.Load(context.Background(), "10.1.1.2")
	s, _ = RecordFailure(s, base)
	k.Save(context.Background(), s)

	store.failing = true
	got := k.Load(context.Background(), "10.1.1.2")
	if got.FailedAttempts != 1 {
		t.Fatalf("expected local fallback to retain state, got %+v", got)
	}

	// Saves during the outage still land locally.
	got, _ = RecordFailure(got, base)
	k.Save(context.Background(), got)
	again := k.Load(context.Background(), "10.1.1.2")
	if again.FailedAttempts != 2 {
		t.Fatalf("expected locally saved state, got %+v", again)
	}
}

func TestKeeperFallbackForUnknownOriginIsZeroState(t *testing.T) {
	store := &flakyStore{inner: NewMemory(), failing: true}
	k := NewKeeper(store, WithKeeperClock(func() time.Time { return base }))

	s := k.Load(context.Background(), "never-seen")
	if s.OriginKey != "never-seen" || s.FailedAttempts != 0 || s.LockoutCount != 0 {
		t.Fatalf("expected zero state, got %+v", s)
	}
	if !CheckAdmission(s, base).Allowed() {
		t.Fatalf("unknown origin should be admitted during outage")
	}
}
