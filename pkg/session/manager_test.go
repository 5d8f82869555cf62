package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/aretw0/corebot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// SlowStore serializes stacks and simulates latency to provoke races if locking is missing.
type SlowStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func (s *SlowStore) Save(_ context.Context, id string, stack *domain.Stack) error {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	b, err := json.Marshal(stack)
	if err != nil {
		return err
	}
	s.data[id] = b
	s.saves++
	return nil
}

func (s *SlowStore) Load(_ context.Context, id string) (*domain.Stack, error) {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	b, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var stack domain.Stack
	return &stack, json.Unmarshal(b, &stack)
}

func (s *SlowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(context.Context) ([]string, error) {
	return nil, nil
}

func increment(_ context.Context, stack *domain.Stack) (*domain.Stack, error) {
	if stack.Empty() {
		stack.Push(domain.Frame{DialogID: "Counter", State: map[string]any{"n": float64(0)}})
	}
	top := stack.Top()
	top.State["n"] = top.State["n"].(float64) + 1
	return stack, nil
}

func TestManager_TurnsAreSerialized(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Turn(ctx, "race", increment))
		}()
	}
	wg.Wait()

	stack, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, float64(20), stack.Top().State["n"], "no update may be lost")
}

func TestManager_TurnStartsEmpty(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	var seen *domain.Stack
	err := manager.Turn(context.Background(), "fresh", func(_ context.Context, s *domain.Stack) (*domain.Stack, error) {
		seen = s
		return s, nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.True(t, seen.Empty())
}

func TestManager_TurnStoreFailures(t *testing.T) {
	boom := errors.New("connection refused")
	ctx := context.Background()

	t.Run("load", func(t *testing.T) {
		manager := session.NewManager(&SlowStore{loadErr: boom})
		called := false
		err := manager.Turn(ctx, "id", func(_ context.Context, s *domain.Stack) (*domain.Stack, error) {
			called = true
			return s, nil
		})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.ErrorIs(t, err, boom)
		assert.False(t, called)
	})

	t.Run("save", func(t *testing.T) {
		manager := session.NewManager(&SlowStore{saveErr: boom})
		err := manager.Turn(ctx, "id", increment)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("turn error skips save", func(t *testing.T) {
		store := &SlowStore{}
		manager := session.NewManager(store)
		err := manager.Turn(ctx, "id", func(context.Context, *domain.Stack) (*domain.Stack, error) {
			return nil, domain.ErrUnknownDialog
		})
		assert.ErrorIs(t, err, domain.ErrUnknownDialog)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Zero(t, store.saves)
	})
}

type fakeLocker struct {
	mu       sync.Mutex
	ttls     []time.Duration
	unlocked int
	err      error
}

func (f *fakeLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.ttls = append(f.ttls, ttl)
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	require.NoError(t, manager.Turn(context.Background(), "id", increment))
	assert.Equal(t, []time.Duration{5 * time.Second}, locker.ttls)
	assert.Equal(t, 1, locker.unlocked)

	locker.err = errors.New("lock timeout")
	err := manager.Turn(context.Background(), "id", increment)
	assert.ErrorContains(t, err, "distributed lock")
}
