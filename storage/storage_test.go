package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/storage"
)

func backends(t *testing.T) map[string]storage.Backend {
	t.Helper()
	ctx := context.Background()

	boltStore, err := storage.OpenBolt(filepath.Join(t.TempDir(), "skillsphere.db"))
	require.NoError(t, err)

	bunStore, err := storage.OpenBun(ctx, ":memory:")
	require.NoError(t, err)

	out := map[string]storage.Backend{
		"memory": storage.NewMemory(),
		"bolt":   boltStore,
		"sqlite": bunStore,
	}
	t.Cleanup(func() {
		for _, b := range out {
			_ = b.Close()
		}
	})
	return out
}

func TestBackends_SetGetDelete(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := backend.Get(ctx, authclient.CredentialKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, backend.Set(ctx, authclient.CredentialKey, "h.p.s"))
			v, ok, err := backend.Get(ctx, authclient.CredentialKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "h.p.s", v)

			require.NoError(t, backend.Set(ctx, authclient.CredentialKey, "h.q.s"))
			v, _, err = backend.Get(ctx, authclient.CredentialKey)
			require.NoError(t, err)
			assert.Equal(t, "h.q.s", v)

			require.NoError(t, backend.Delete(ctx, authclient.CredentialKey))
			_, ok, err = backend.Get(ctx, authclient.CredentialKey)
			require.NoError(t, err)
			assert.False(t, ok)

			// deleting a missing key is not an error
			assert.NoError(t, backend.Delete(ctx, authclient.CredentialKey))
		})
	}
}

func TestBackends_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Set(ctx, authclient.CredentialKey, "token"))
			require.NoError(t, backend.Set(ctx, authclient.ThemeKey, `"dark"`))
			require.NoError(t, backend.Delete(ctx, authclient.CredentialKey))

			v, ok, err := backend.Get(ctx, authclient.ThemeKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `"dark"`, v)
		})
	}
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "skillsphere.db")

	first, err := storage.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, authclient.CredentialKey, "h.p.s"))
	require.NoError(t, first.Close())

	second, err := storage.OpenBolt(path)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get(ctx, authclient.CredentialKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h.p.s", v)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("quota exceeded")
	u := storage.Unavailable{Err: cause}

	_, ok, err := u.Get(ctx, "k")
	assert.False(t, ok)
	assert.True(t, authclient.IsStorageError(err))
	assert.ErrorIs(t, err, cause)

	assert.True(t, authclient.IsStorageError(u.Set(ctx, "k", "v")))
	assert.True(t, authclient.IsStorageError(storage.Unavailable{}.Delete(ctx, "k")))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := storage.Open(ctx, storage.DriverMemory, "")
		require.NoError(t, err)
		assert.IsType(t, &storage.Memory{}, b)
	})

	t.Run("bolt", func(t *testing.T) {
		b, err := storage.Open(ctx, storage.DriverBolt, filepath.Join(t.TempDir(), "s.db"))
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &storage.Bolt{}, b)
	})

	t.Run("sqlite", func(t *testing.T) {
		b, err := storage.Open(ctx, storage.DriverSQLite, ":memory:")
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &storage.Bun{}, b)
	})

	t.Run("unknown driver falls back to unavailable", func(t *testing.T) {
		b, err := storage.Open(ctx, "redis", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrUnknownDriver)
		assert.IsType(t, storage.Unavailable{}, b)
	})

	t.Run("unopenable bolt path falls back to unavailable", func(t *testing.T) {
		b, err := storage.Open(ctx, storage.DriverBolt, filepath.Join(t.TempDir(), "missing", "dir", "s.db"))
		require.Error(t, err)
		assert.IsType(t, storage.Unavailable{}, b)
	})
}

func TestCacheOverUnavailableStorageKeepsMemoryValue(t *testing.T) {
	cache := authclient.NewCredentialCache(storage.Unavailable{}, authclient.WithCacheLogger(nopLogger{}))

	assert.Equal(t, "", cache.Get())
	cache.Set("h.p.s")
	assert.Equal(t, "h.p.s", cache.Get())
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
