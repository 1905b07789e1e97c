package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"glance/internal/config"
	"glance/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s ports.KVStore) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "glance_widgets")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "glance_widgets", []byte(`{"widgets":[]}`)))
	v, found, err := s.Get(ctx, "glance_widgets")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"widgets":[]}`, string(v))

	require.NoError(t, s.Set(ctx, "glance_widgets", []byte(`{"widgets":[{"id":"a"}]}`)))
	v, _, err = s.Get(ctx, "glance_widgets")
	require.NoError(t, err)
	assert.JSONEq(t, `{"widgets":[{"id":"a"}]}`, string(v))

	require.NoError(t, s.Close(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[2] = 'b'

	v, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(v))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "glance_widgets.json"))
	assert.NoError(t, err)
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Set(context.Background(), "../escape", []byte(`{}`))
	assert.Error(t, err)
	_, _, err = s.Get(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	exerciseStore(t, NewRedisStoreWithClient(client, "glance:"))

	assert.True(t, mr.Exists("glance:glance_widgets"))
}

func TestOpenMemoryAndFile(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendFile, DataDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "etcd"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendPostgres}, zerolog.Nop())
	assert.Error(t, err)
}
