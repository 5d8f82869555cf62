package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corebot/pkg/adapters/sqlite"
	"github.com/aretw0/corebot/pkg/ports"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := sqlite.Open(context.Background(), path, sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := openStore(t)
	ports.RunStackStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)
	require.NoError(t, store.Save(ctx, "c1", ports.SampleStack()))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"MainDialog", "BookingDialog"}, got.DialogIDs())
}

func TestSQLiteStore_DeleteMissing(t *testing.T) {
	store, _ := openStore(t)
	assert.NoError(t, store.Delete(context.Background(), "nope"))
}
