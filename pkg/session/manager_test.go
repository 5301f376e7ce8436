package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/adapters/redis"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency and detects overlapping operations on one session.
type SlowStore struct {
	data     map[string]domain.Snapshot
	mu       sync.Mutex
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (s *SlowStore) enter() func() {
	if s.inflight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return func() { s.inflight.Add(-1) }
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	defer s.enter()()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]domain.Snapshot)
	}
	s.data[sessionID] = *snap
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	defer s.enter()()
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[sessionID]; ok {
		return &snap, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

var _ ports.SnapshotStore = (*SlowStore)(nil)

func TestManager_SerializesSameSession(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(steps int) {
			defer wg.Done()
			err := manager.Save(ctx, "race-test", &domain.Snapshot{Steps: steps})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.False(t, store.overlap.Load(), "saves of one session must not overlap")
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, isNew, err := manager.LoadOrStart(ctx, id, domain.Snapshot{MemorySize: 7, InitialSymbol: '0'})
			assert.NoError(t, err)
			assert.Equal(t, 7, snap.MemorySize)
			if isNew {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load(), "only one caller creates the session")

	snap, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.MemorySize)
	assert.False(t, snap.SavedAt.IsZero())
}

type failingStore struct{ *memory.Store }

func (f *failingStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return nil, errors.New("backend down")
}

func TestManager_LoadOrStartPropagatesStoreErrors(t *testing.T) {
	manager := session.NewManager(&failingStore{Store: memory.NewStore()})
	_, created, err := manager.LoadOrStart(context.Background(), "x", domain.Snapshot{})
	assert.Error(t, err)
	assert.False(t, created)
}

func TestManager_SaveStampsTime(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, manager.Save(ctx, "kept", &domain.Snapshot{SavedAt: fixed}))
	require.NoError(t, manager.Save(ctx, "stamped", &domain.Snapshot{}))

	kept, err := manager.Load(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, fixed, kept.SavedAt)

	stamped, err := manager.Load(ctx, "stamped")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamped.SavedAt, time.Minute)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept", "stamped"}, ids)

	require.NoError(t, manager.Delete(ctx, "kept"))
	_, err = manager.Load(ctx, "kept")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewFromClient(client)
	manager := session.NewManager(store,
		session.WithLocker(redis.NewLocker(client, redis.DefaultPrefix)),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	err := manager.WithLock(ctx, "shared", func(ctx context.Context) error {
		assert.True(t, mr.Exists(redis.DefaultPrefix+"lock:shared"), "lock held during fn")
		return store.Save(ctx, "shared", &domain.Snapshot{MemorySize: 3, InitialSymbol: '0'})
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(redis.DefaultPrefix+"lock:shared"), "lock released after fn")

	snap, err := manager.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.MemorySize)
}
