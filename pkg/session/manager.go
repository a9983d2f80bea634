package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
)

// ErrSaveFailed is matched by WithProfile errors caused by persisting the
// profile, as opposed to errors returned by the wrapped function.
var ErrSaveFailed = errors.New("failed to save profile")

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates profile access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.ProfileStore

	mu    sync.Mutex
	locks map[string]*lockEntry

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

// WithLockTTL sets the TTL of distributed locks.
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
		m.logger = logger
	}
}

// NewManager creates a new Manager over store.
func NewManager(store ports.ProfileStore, opts ...Option) *Manager {
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
// The caller must lock entry.mu and call release(id) after unlocking.
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

// Load retrieves an existing profile from the store.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Profile, error) {
	var p *domain.Profile
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		p, err = m.store.Load(ctx, id)
		return err
	})
	return p, err
}

// LoadOrCreate loads a profile, creating and persisting an empty one when
// it does not exist.
func (m *Manager) LoadOrCreate(ctx context.Context, id string) (*domain.Profile, error) {
	var p *domain.Profile
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		p, err = m.loadOrCreate(ctx, id)
		return err
	})
	return p, err
}

func (m *Manager) loadOrCreate(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := m.store.Load(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}

	p = domain.NewProfile(id)
	if err := m.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to initialize profile: %w", err)
	}
	return p, nil
}

// Save persists the profile.
func (m *Manager) Save(ctx context.Context, p *domain.Profile) error {
	return m.WithLock(ctx, p.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, p)
	})
}

// Delete removes the profile from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying profile store.
func (m *Manager) Store() ports.ProfileStore {
	return m.store
}

// WithProfile loads (or creates) the profile, runs fn on it while holding
// the profile lock, and saves it back. The profile is saved even when fn
// fails, so partial progress such as refreshed credentials is kept.
func (m *Manager) WithProfile(ctx context.Context, id string, fn func(context.Context, *domain.Profile) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		p, err := m.loadOrCreate(ctx, id)
		if err != nil {
			return err
		}

		runErr := fn(ctx, p)

		// The run context may be expired; persisting must not depend on it.
		saveCtx := context.WithoutCancel(ctx)
		if err := m.store.Save(saveCtx, p); err != nil {
			return errors.Join(runErr, fmt.Errorf("%w %s: %w", ErrSaveFailed, id, err))
		}
		return runErr
	})
}

// WithLock executes a function while holding the lock for the profile.
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
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"profile_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
