package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/corebot/internal/logging"
	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a conversation.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to conversation stacks.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.StackStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by conversation id

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.StackStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock entry.mu, and call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// TurnFunc computes the next stack of a conversation from its current one.
// Returning an error discards the turn: nothing is saved.
type TurnFunc func(ctx context.Context, stack *domain.Stack) (*domain.Stack, error)

// Turn loads the stack of id (empty when none exists), applies fn and saves
// its result, all under the conversation lock. Store failures are wrapped in
// domain.ErrStoreUnavailable.
func (m *Manager) Turn(ctx context.Context, id string, fn TurnFunc) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		stack, err := m.store.Load(ctx, id)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			stack = domain.NewStack()
		case err != nil:
			return fmt.Errorf("%w: load %s: %w", domain.ErrStoreUnavailable, id, err)
		}

		next, err := fn(ctx, stack)
		if err != nil {
			return err
		}

		if err := m.store.Save(ctx, id, next); err != nil {
			return fmt.Errorf("%w: save %s: %w", domain.ErrStoreUnavailable, id, err)
		}
		return nil
	})
}

// Load retrieves the stack of a conversation.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Stack, error) {
	var stack *domain.Stack
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		stack, err = m.store.Load(ctx, id)
		return err
	})
	return stack, err
}

// Save persists the stack of a conversation.
func (m *Manager) Save(ctx context.Context, id string, stack *domain.Stack) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, stack)
	})
}

// Delete forgets a conversation. Its next turn starts from the root dialog.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying stack store.
func (m *Manager) Store() ports.StackStore {
	return m.store
}

// WithLock executes fn while holding the lock of conversation id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The turn context may be cancelled by now; the lock must still go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation_id", id,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx)
}
