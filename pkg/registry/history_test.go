package registry

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/foomo/clientregistry/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testHistory(t *testing.T, s storage.Storage, opts ...HistoryOption) *History {
	t.Helper()
	h, err := NewHistory(zaptest.NewLogger(t), s, opts...)
	require.NoError(t, err)
	return h
}

func TestHistoryCurrent(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, newTestStorage(t))

	_, err := h.Current(ctx)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, h.Add(ctx, []byte("test")))
	data, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("test"), data)
}

func TestHistoryCleanup(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, newTestStorage(t), HistoryWithLimit(2))
	for i := 0; i < 20; i++ {
		require.NoError(t, h.Add(ctx, []byte(fmt.Sprint(i))))
	}

	backups, err := h.Backups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)

	// newest first
	newest, err := h.storage.Read(ctx, backups[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("19"), newest)
	older, err := h.storage.Read(ctx, backups[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("18"), older)
}

func TestHistoryBackupsDisabled(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	h := testHistory(t, s, HistoryWithLimit(0))
	require.NoError(t, h.Add(ctx, []byte("a")))
	require.NoError(t, h.Add(ctx, []byte("b")))

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultKey}, keys)
}

func TestHistoryRestore(t *testing.T) {
	ctx := context.Background()
	h := testHistory(t, newTestStorage(t), HistoryWithLimit(3))
	require.NoError(t, h.Add(ctx, []byte("first")))
	require.NoError(t, h.Add(ctx, []byte("second")))

	backups, err := h.Backups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)

	require.NoError(t, h.Restore(ctx, backups[1]))
	data, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	require.Error(t, h.Restore(ctx, DefaultKey), "the current key is no backup")
	require.Error(t, h.Restore(ctx, "other-20200101T000000.000000000Z.json"))
	require.Error(t, h.Restore(ctx, DefaultKey+"-19700101T000000.000000000Z.json"))
}

func TestHistoryCustomKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	h := testHistory(t, s, HistoryWithKey("clients"))
	require.NoError(t, h.Add(ctx, []byte("[]")))

	_, err := s.Read(ctx, "clients")
	require.NoError(t, err)
	_, err = s.Read(ctx, DefaultKey)
	assert.True(t, os.IsNotExist(err))
}

func TestHistorySharedStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	archive := testHistory(t, s, HistoryWithKey("db-archive"), HistoryWithLimit(2))
	require.NoError(t, archive.Add(ctx, []byte("archive")))

	h := testHistory(t, s, HistoryWithKey("db"), HistoryWithLimit(1))
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Add(ctx, []byte(fmt.Sprint(i))))
	}

	backups, err := h.Backups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.NotContains(t, backups[0], "archive")

	archived, err := archive.Backups(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1, "cleanup of db must not touch db-archive backups")

	require.Error(t, h.Restore(ctx, archived[0]))
	require.NoError(t, h.Restore(ctx, backups[0]))
	data, err := h.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), data)
}

func TestHistoryFilesystem(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	h := testHistory(t, fs, HistoryWithLimit(1))
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Add(ctx, []byte(fmt.Sprint(i))))
	}
	backups, err := h.Backups(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
	require.NoError(t, h.Close())
}

func TestNewHistoryInvalid(t *testing.T) {
	l := zaptest.NewLogger(t)
	_, err := NewHistory(l, nil)
	require.Error(t, err)

	_, err = NewHistory(l, newTestStorage(t), HistoryWithKey("a/b"))
	require.ErrorIs(t, err, storage.ErrInvalidKey)

	_, err = NewHistory(l, newTestStorage(t), HistoryWithKey(".clients"))
	require.ErrorIs(t, err, storage.ErrInvalidKey)

	_, err = NewHistory(l, newTestStorage(t), HistoryWithLimit(-1))
	require.Error(t, err)
}
