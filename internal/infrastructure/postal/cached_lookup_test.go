package postal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a map-backed Store for tests
type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, false, s.failGet
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

// countingLookup counts upstream calls and can block until released
type countingLookup struct {
	calls   atomic.Int32
	result  registry.PostalAddress
	err     error
	release chan struct{}
}

func (l *countingLookup) Lookup(_ context.Context, _ string) (registry.PostalAddress, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	return l.result, l.err
}

var manaus = registry.PostalAddress{Street: "Rua Lago Sul", City: "Manaus", PostalCode: "69098384"}

func TestCachedLookup_ReadThrough(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingLookup{result: manaus}
	lookup := NewCachedLookup(upstream, store, time.Hour, nil)
	ctx := context.Background()

	first, err := lookup.Lookup(ctx, "69098-384")
	require.NoError(t, err)
	second, err := lookup.Lookup(ctx, "69098384")
	require.NoError(t, err)

	assert.Equal(t, manaus, first)
	assert.Equal(t, manaus, second)
	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.Equal(t, time.Hour, store.ttls["postal:cep:69098384"])
}

func TestCachedLookup_DefaultTTL(t *testing.T) {
	lookup := NewCachedLookup(&countingLookup{}, newMemoryStore(), 0, nil)
	assert.Equal(t, DefaultCacheTTL, lookup.ttl)
}

func TestCachedLookup_ErrorsAreNotCached(t *testing.T) {
	store := newMemoryStore()
	upstream := &countingLookup{err: registry.ErrPostalCodeNotFound}
	lookup := NewCachedLookup(upstream, store, time.Hour, nil)
	ctx := context.Background()

	_, err := lookup.Lookup(ctx, "99999999")
	assert.ErrorIs(t, err, registry.ErrPostalCodeNotFound)
	_, err = lookup.Lookup(ctx, "99999999")
	assert.ErrorIs(t, err, registry.ErrPostalCodeNotFound)

	assert.Equal(t, int32(2), upstream.calls.Load())
	assert.Empty(t, store.data)
}

func TestCachedLookup_StoreFailuresFallThrough(t *testing.T) {
	store := newMemoryStore()
	store.failGet = errors.New("connection refused")
	store.failSet = errors.New("connection refused")
	upstream := &countingLookup{result: manaus}
	lookup := NewCachedLookup(upstream, store, time.Hour, nil)

	resolved, err := lookup.Lookup(context.Background(), "69098384")

	require.NoError(t, err)
	assert.Equal(t, manaus, resolved)
}

func TestCachedLookup_CorruptedEntryIsIgnored(t *testing.T) {
	store := newMemoryStore()
	store.data["postal:cep:69098384"] = []byte("not json")
	upstream := &countingLookup{result: manaus}
	lookup := NewCachedLookup(upstream, store, time.Hour, nil)

	resolved, err := lookup.Lookup(context.Background(), "69098384")

	require.NoError(t, err)
	assert.Equal(t, manaus, resolved)
	assert.Equal(t, int32(1), upstream.calls.Load())
}

func TestCachedLookup_CoalescesConcurrentMisses(t *testing.T) {
	upstream := &countingLookup{result: manaus, release: make(chan struct{})}
	lookup := NewCachedLookup(upstream, newMemoryStore(), time.Hour, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan registry.PostalAddress, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := lookup.Lookup(context.Background(), "69098384")
			if err == nil {
				results <- resolved
			}
		}()
	}

	// let every caller reach the shared call before the upstream answers
	require.Eventually(t, func() bool { return upstream.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(upstream.release)
	wg.Wait()
	close(results)

	count := 0
	for r := range results {
		assert.Equal(t, manaus, r)
		count++
	}
	assert.Equal(t, callers, count)
	assert.Equal(t, int32(1), upstream.calls.Load())
}
