package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/scriptor/internal/runtime"
	"github.com/aretw0/scriptor/pkg/adapters/memory"
	"github.com/aretw0/scriptor/pkg/adapters/redis"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/registry"
	"github.com/aretw0/scriptor/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Profile, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, p *domain.Profile) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, p)
}

func counter(p *domain.Profile) int {
	v, _ := p.Get("counter")
	n, _ := v.(int)
	return n
}

func TestManager_WithProfileSerializesUpdates(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithProfile(ctx, "acc", func(_ context.Context, p *domain.Profile) error {
				p.Set("counter", counter(p)+1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := manager.Load(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, 10, counter(p))
}

func TestManager_WithProfileSavesOnFailure(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	err := manager.WithProfile(ctx, "acc", func(_ context.Context, p *domain.Profile) error {
		p.Set("cookie", "fresh")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := manager.Load(ctx, "acc")
	require.NoError(t, err)
	v, _ := p.Get("cookie")
	assert.Equal(t, "fresh", v)
}

func TestManager_LoadOrCreate(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := manager.LoadOrCreate(ctx, "new")
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)

	_, err = manager.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client)
	manager := session.NewManager(store, session.WithLocker(redis.NewLocker(client, "test:")))
	ctx := context.Background()

	err = manager.WithProfile(ctx, "acc", func(_ context.Context, p *domain.Profile) error {
		assert.True(t, mr.Exists("test:lock:acc"), "lock is held while the profile is in use")
		p.Set("seen", true)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:acc"))
}

func TestManager_WithProfileTimedOutRunKeepsLateWrites(t *testing.T) {
	commands := registry.NewCommands()
	commands.RegisterFunc("slow-stamp", func(_ context.Context, _ *domain.Action, s *domain.ExecutionState) (domain.Outcome, error) {
		time.Sleep(60 * time.Millisecond)
		s.Profile.(*domain.Profile).Set("stamp", "late")
		return domain.Succeeded(nil), nil
	})
	engine := runtime.NewEngine(commands, registry.NewCheckers())
	script := &domain.Script{
		Name:             "slow",
		MaxExecutionTime: domain.Duration(10 * time.Millisecond),
		Actions:          []domain.Action{{ID: 1, EntryPoint: true, Command: "slow-stamp"}},
	}

	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	err := manager.WithProfile(ctx, "acc", func(ctx context.Context, p *domain.Profile) error {
		_, err := engine.Run(ctx, script, p)
		return err
	})
	require.ErrorIs(t, err, domain.ErrTimeout)

	err = manager.WithProfile(ctx, "acc", func(_ context.Context, p *domain.Profile) error {
		v, ok := p.Get("stamp")
		assert.True(t, ok, "write finished before the session saved")
		assert.Equal(t, "late", v)
		return nil
	})
	require.NoError(t, err)
}

type failingSaveStore struct {
	*memory.Store
}

func (failingSaveStore) Save(context.Context, *domain.Profile) error {
	return errors.New("disk full")
}

func TestManager_WithProfileSaveFailure(t *testing.T) {
	inner := memory.NewStore()
	require.NoError(t, inner.Save(context.Background(), domain.NewProfile("acc")))
	manager := session.NewManager(failingSaveStore{inner})
	runErr := errors.New("run failed")

	err := manager.WithProfile(context.Background(), "acc", func(context.Context, *domain.Profile) error {
		return runErr
	})
	assert.ErrorIs(t, err, runErr)
	assert.ErrorIs(t, err, session.ErrSaveFailed)
	assert.ErrorContains(t, err, "disk full")

	err = manager.WithProfile(context.Background(), "acc", func(context.Context, *domain.Profile) error {
		return nil
	})
	assert.ErrorIs(t, err, session.ErrSaveFailed)
}
