package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/corebot/pkg/adapters/memory"
	"github.com/aretw0/corebot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStackStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	stack := ports.SampleStack()
	require.NoError(t, store.Save(ctx, "c", stack))
	stack.Top().State["destination"] = "Rome"

	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Paris", loaded.Top().State["destination"])

	loaded.Top().State["destination"] = "Oslo"
	again, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Paris", again.Top().State["destination"])
}
