package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/varsilias/researchpaper/internal/config"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "chatHistory", []byte(`[{"id":"1"}]`)))
	v, ok, err := s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"1"}]`, string(v))

	require.NoError(t, s.Set(ctx, "chatHistory", []byte(`[]`)))
	v, ok, err = s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(v))

	require.NoError(t, s.Delete(ctx, "chatHistory"))
	_, ok, err = s.Get(ctx, "chatHistory")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Delete(ctx, "chatHistory"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))
	out[0] = 'y'

	again, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "no temp files left behind")
}

func TestFileStoreEscapesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "../escape", []byte("x")))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	require.True(t, os.IsNotExist(err))

	v, ok, err := s.Get(ctx, "../escape")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", string(v))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "history.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", string(v))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), addr, 0, "researchpaper-test:")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StoreConfig{Driver: config.DriverFile, Path: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "etcd"})
	require.Error(t, err)
}
