package badger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corebot/pkg/adapters/badger"
	"github.com/aretw0/corebot/pkg/ports"
)

func TestBadgerStore_Contract(t *testing.T) {
	store, err := badger.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunStackStoreContract(t, store)
}

func TestBadgerStore_OnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badger.Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "c1", ports.SampleStack()))
	require.NoError(t, store.Close())

	reopened, err := badger.Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	ids, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}
