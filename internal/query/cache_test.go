package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackswift/internal/events"
)

func TestFetchCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	cache := New(16, time.Minute, zerolog.Nop())
	bus := events.NewBus()
	cache.Attach(bus)

	var calls int32
	load := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"INV-1"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, cache, events.Invoices, "page=1", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"INV-1"}, got)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// An invoice mutation also makes vendors and the dashboard stale.
	_, err := Fetch(ctx, cache, events.Vendors, "", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	_, err = Fetch(ctx, cache, events.Inventory, "", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Len())

	bus.Mutated(events.Invoices)
	assert.Equal(t, 1, cache.Len())

	_, err = Fetch(ctx, cache, events.Invoices, "page=1", load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchDeduplicatesConcurrentReads(t *testing.T) {
	cache := New(16, time.Minute, zerolog.Nop())
	release := make(chan struct{})
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), cache, events.Sales, "day", func(context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSupersededFetchIsNotStored(t *testing.T) {
	cache := New(16, time.Minute, zerolog.Nop())
	_, err := Fetch(context.Background(), cache, events.Sales, "day", func(context.Context) (int, error) {
		cache.Invalidate(events.Sales)
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	cache := New(16, time.Minute, zerolog.Nop())
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), cache, events.Expenses, "", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestEntriesExpire(t *testing.T) {
	cache := New(16, 20*time.Millisecond, zerolog.Nop())
	var calls int32
	load := func(context.Context) (int, error) { return int(atomic.AddInt32(&calls, 1)), nil }

	_, err := Fetch(context.Background(), cache, events.Dashboard, "", load)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	v, err := Fetch(context.Background(), cache, events.Dashboard, "", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetchAfterInvalidateStartsNewRequest(t *testing.T) {
	cache := New(16, time.Minute, zerolog.Nop())
	started := make(chan struct{})
	release := make(chan struct{})

	stale := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), cache, events.Vendors, "", func(context.Context) (string, error) {
			close(started)
			<-release
			return "before edit", nil
		})
		assert.NoError(t, err)
		stale <- v
	}()
	<-started

	cache.Invalidate(events.Vendors)
	v, err := Fetch(context.Background(), cache, events.Vendors, "", func(context.Context) (string, error) {
		return "after edit", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after edit", v)

	close(release)
	assert.Equal(t, "before edit", <-stale)

	v, err = Fetch(context.Background(), cache, events.Vendors, "", func(context.Context) (string, error) {
		return "", errors.New("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, "after edit", v)
}

func TestCancelledCallerDoesNotFailSharedRead(t *testing.T) {
	cache := New(16, time.Minute, zerolog.Nop())
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	load := func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, cache, events.Sales, "day", load)
		first <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		v, err := Fetch(context.Background(), cache, events.Sales, "day", load)
		assert.NoError(t, err)
		second <- v
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	assert.Equal(t, 42, <-second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
