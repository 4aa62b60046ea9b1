package slot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/boddenberg/go-entulho/internal/infra/slot"
	"github.com/boddenberg/go-entulho/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *slot.SQLiteStore {
	t.Helper()
	// a named in-memory database per test keeps tests isolated
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := slot.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]port.SlotStore {
	fs, err := slot.NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return map[string]port.SlotStore{
		"file":   fs,
		"sqlite": newSQLite(t),
	}
}

func TestSlot_MissingKeyReadsNil(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data, err := s.Read(context.Background(), "clients")
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestSlot_WriteThenOverwrite(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "clients", []byte(`[{"nif":"123-456-789"}]`)))
			require.NoError(t, s.Write(ctx, "clients", []byte(`[]`)))

			data, err := s.Read(ctx, "clients")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(data))
		})
	}
}

func TestSlot_KeysAreIndependent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Write(ctx, "clients", []byte(`[]`)))
			require.NoError(t, s.Write(ctx, "clients.corrupt", []byte(`{oops`)))

			data, err := s.Read(ctx, "clients")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(data))
		})
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := slot.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "clients", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clients.json", entries[0].Name())
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := slot.NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Write(context.Background(), "../escape", []byte(`[]`))
	assert.Error(t, err)
}

func TestFileStore_HonoursCancelledContext(t *testing.T) {
	s, err := slot.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Write(ctx, "clients", []byte(`[]`)), context.Canceled)
}
