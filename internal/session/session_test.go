package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockportal/internal/tokenstore"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func refreshToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newSession(t *testing.T, backend tokenstore.Backend) (*State, *tokenstore.Store) {
	t.Helper()
	store := tokenstore.New(backend)
	return New(store, WithClock(func() time.Time { return now })), store
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("no credentials", func(t *testing.T) {
		s, _ := newSession(t, tokenstore.NewMemoryBackend())
		require.NoError(t, s.Init(ctx))
		assert.False(t, s.Active())
	})

	t.Run("opaque pair is trusted", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		require.NoError(t, backend.Write(ctx, tokenstore.EntryAccess, "A1"))
		require.NoError(t, backend.Write(ctx, tokenstore.EntryRefresh, "R1"))

		s, _ := newSession(t, backend)
		require.NoError(t, s.Init(ctx))
		assert.True(t, s.Active())
	})

	t.Run("unexpired refresh credential", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		require.NoError(t, backend.Write(ctx, tokenstore.EntryAccess, "A1"))
		require.NoError(t, backend.Write(ctx, tokenstore.EntryRefresh, refreshToken(t, now.Add(24*time.Hour))))

		s, _ := newSession(t, backend)
		require.NoError(t, s.Init(ctx))
		assert.True(t, s.Active())
	})

	t.Run("expired refresh credential is cleared", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		require.NoError(t, backend.Write(ctx, tokenstore.EntryAccess, "A1"))
		require.NoError(t, backend.Write(ctx, tokenstore.EntryRefresh, refreshToken(t, now.Add(-time.Hour))))

		s, store := newSession(t, backend)
		require.NoError(t, s.Init(ctx))
		assert.False(t, s.Active())

		_, ok := store.Get()
		assert.False(t, ok)
		_, found, err := backend.Read(ctx, tokenstore.EntryRefresh)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("half pair is inactive", func(t *testing.T) {
		backend := tokenstore.NewMemoryBackend()
		require.NoError(t, backend.Write(ctx, tokenstore.EntryAccess, "A1"))

		s, _ := newSession(t, backend)
		require.NoError(t, s.Init(ctx))
		assert.False(t, s.Active())
	})
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) error          { return errors.New("disk on fire") }
func (brokenStore) Get() (tokenstore.Credentials, bool) { return tokenstore.Credentials{}, false }
func (brokenStore) Clear(context.Context) error         { return nil }

func TestInit_LoadFailure(t *testing.T) {
	s := New(brokenStore{})
	err := s.Init(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
	assert.False(t, s.Active())
}

func TestSubscribe_NotifiesOnChangeOnly(t *testing.T) {
	s := New(tokenstore.New(nil))

	var got []bool
	unsubscribe := s.Subscribe(func(active bool) { got = append(got, active) })

	s.SetActive(true)
	s.SetActive(true)
	s.SetActive(false)
	s.Expire(errors.New("refresh rejected"))

	assert.Equal(t, []bool{true, false}, got)

	unsubscribe()
	unsubscribe()
	s.SetActive(true)
	assert.Equal(t, []bool{true, false}, got)
}

func TestSubscribe_CallbackMayReadState(t *testing.T) {
	s := New(tokenstore.New(nil))

	var observed bool
	s.Subscribe(func(bool) { observed = s.Active() })
	s.SetActive(true)

	assert.True(t, observed, "subscribers run outside the lock")
}

func TestExpire(t *testing.T) {
	s := New(tokenstore.New(nil))
	s.SetActive(true)

	s.Expire(errors.New("refresh rejected"))
	assert.False(t, s.Active())
}

func TestConcurrentSubscribers(t *testing.T) {
	s := New(tokenstore.New(nil))

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Subscribe(func(bool) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	s.SetActive(true)
	assert.Equal(t, 20, count)
}
