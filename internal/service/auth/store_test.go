package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodel "github.com/zhouzirui/tg-gateway/internal/model/auth"
	"github.com/zhouzirui/tg-gateway/internal/telegram/telegramtest"
)

func connectedClient(t *testing.T) *telegramtest.Client {
	t.Helper()
	client := &telegramtest.Client{}
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestStorePutReplacesAndStopsOldClient(t *testing.T) {
	store := NewStore(time.Minute)
	first := connectedClient(t)
	second := connectedClient(t)

	store.Put(&Session{ID: "a", Client: first})
	store.Put(&Session{ID: "a", Client: second})

	assert.Equal(t, 1, store.Len())
	assert.False(t, first.Connected())
	assert.True(t, second.Connected())

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, second, got.Client)
}

func TestStoreTakeAndEvict(t *testing.T) {
	store := NewStore(time.Minute)
	client := connectedClient(t)
	session := &Session{ID: "a", Client: client}
	store.Put(session)

	assert.True(t, store.Take(session))
	assert.False(t, store.Take(session))
	assert.True(t, client.Connected(), "take hands the client over without stopping it")

	store.Put(session)
	assert.True(t, store.Evict(session))
	assert.False(t, client.Connected())
	assert.Equal(t, 0, store.Len())
}

func TestStoreTakeIgnoresReplacedSession(t *testing.T) {
	store := NewStore(time.Minute)
	old := &Session{ID: "a", Client: connectedClient(t)}
	store.Put(old)
	store.Put(&Session{ID: "a", Client: connectedClient(t)})

	assert.False(t, store.Take(old))
	assert.Equal(t, 1, store.Len())
}

func TestStoreSweepEvictsExpired(t *testing.T) {
	store := NewStore(10 * time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	stale := connectedClient(t)
	fresh := connectedClient(t)
	store.Put(&Session{ID: "stale", Client: stale, CreatedAt: now.Add(-11 * time.Minute)})
	store.Put(&Session{ID: "fresh", Client: fresh, CreatedAt: now.Add(-time.Minute)})

	assert.Equal(t, 1, store.Sweep(now))
	assert.False(t, stale.Connected())
	assert.True(t, fresh.Connected())

	_, ok := store.Get("stale")
	assert.False(t, ok)
	_, ok = store.Get("fresh")
	assert.True(t, ok)
}

func TestStoreSweepSkipsBusySession(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Now()
	session := &Session{ID: "busy", Client: connectedClient(t), CreatedAt: now.Add(-time.Hour)}
	store.Put(session)

	session.mu.Lock()
	assert.Equal(t, 0, store.Sweep(now))
	session.mu.Unlock()

	assert.Equal(t, 1, store.Sweep(now))
	assert.Equal(t, authmodel.StateFailed, session.State())
}

func TestStoreRunSweepsUntilCancelled(t *testing.T) {
	store := NewStore(time.Millisecond)
	client := connectedClient(t)
	store.Put(&Session{ID: "a", Client: client, CreatedAt: time.Now().Add(-time.Second)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.False(t, client.Connected())
}

func TestStoreClose(t *testing.T) {
	store := NewStore(time.Minute)
	clients := []*telegramtest.Client{connectedClient(t), connectedClient(t)}
	for i, c := range clients {
		store.Put(&Session{ID: fmt.Sprintf("s%d", i), Client: c})
	}

	store.Close()

	assert.Equal(t, 0, store.Len())
	for _, c := range clients {
		assert.False(t, c.Connected())
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%5)
			session := &Session{ID: id, Client: &telegramtest.Client{}}
			store.Put(session)
			store.Get(id)
			if i%3 == 0 {
				store.Evict(session)
			}
			store.Sweep(time.Now())
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 5)
}
