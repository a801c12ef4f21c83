package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ojclient/internal/cli/config"
	"ojclient/internal/testutil"
	"ojclient/pkg/errors"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s, err := NewRedisStoreWithClient(client, "test:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var s Store
			suite := testutil.NewTestSuite(t).
				BeforeEach(func(t *testing.T) { s = open(t) }).
				AfterEach(func(t *testing.T) { assert.NoError(t, s.Close()) })

			suite.RunTest("missing key", func(t *testing.T) {
				_, ok, err := s.Get(ctx, "auth.access_token")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			suite.RunTest("last write wins", func(t *testing.T) {
				require.NoError(t, s.Set(ctx, "auth.access_token", "a1"))
				require.NoError(t, s.Set(ctx, "auth.refresh_token", "r1"))
				require.NoError(t, s.Set(ctx, "auth.access_token", "a2"))

				v, ok, err := s.Get(ctx, "auth.access_token")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "a2", v)
			})

			suite.RunTest("delete ignores unknown keys", func(t *testing.T) {
				require.NoError(t, s.Set(ctx, "auth.access_token", "a1"))
				require.NoError(t, s.Set(ctx, "auth.refresh_token", "r1"))
				require.NoError(t, s.Delete(ctx, "auth.access_token", "auth.refresh_token", "never.set"))

				_, ok, err := s.Get(ctx, "auth.refresh_token")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			suite.RunTest("empty key", func(t *testing.T) {
				assert.True(t, errors.IsValidation(s.Set(ctx, "", "x")))
			})
		})
	}
}

func TestFileStorePersistsWithOwnerOnlyMode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "ui.theme", "dark"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "ui.theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StateStoreError))
}

func TestClosedStoreFails(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	err := s.Set(context.Background(), "k", "v")
	assert.True(t, errors.Is(err, errors.StateStoreClosed))
}

func TestRedisPrefixIsApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := New(config.StoreConfig{Driver: "redis", RedisAddr: mr.Addr(), Prefix: "oj:"})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "editor.language", "cpp"))
	got, err := mr.Get("oj:editor.language")
	require.NoError(t, err)
	assert.Equal(t, "cpp", got)
}

func TestSQLiteReopenKeepsValues(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	s, err := New(config.StoreConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "editor.fontSize", "16"))
	require.NoError(t, s.Close())

	s, err = New(config.StoreConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "editor.fontSize")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "16", v)
}

func TestUnknownDriver(t *testing.T) {
	_, err := New(config.StoreConfig{Driver: "etcd"})
	assert.Error(t, err)
}
