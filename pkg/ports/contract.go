package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SampleStack returns a nested stack exercising every frame field.
func SampleStack() *domain.Stack {
	s := domain.NewStack()
	s.Push(domain.Frame{DialogID: "MainDialog", StepIndex: 1, State: map[string]any{}})
	s.Push(domain.Frame{
		DialogID:  "BookingDialog",
		StepIndex: 2,
		Prompted:  true,
		State: map[string]any{
			"destination": "Paris",
			"origin":      "Seattle",
			"tags":        []any{"a", "b"},
			"nested":      map[string]any{"ok": true, "n": float64(3)},
		},
	})
	return s
}

// RunStackStoreContract runs a suite of tests to verify that a StackStore implementation
// adheres to the defined interface contract.
func RunStackStoreContract(t *testing.T, store StackStore) {
	ctx := context.Background()
	conversationID := "contract-test-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load round-trips", func(t *testing.T) {
		want := SampleStack()
		require.NoError(t, store.Save(ctx, conversationID, want), "Save should not return error")

		got, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("stack mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Save overwrites", func(t *testing.T) {
		first := SampleStack()
		require.NoError(t, store.Save(ctx, conversationID, first))

		second := domain.NewStack()
		second.Push(domain.Frame{DialogID: "MainDialog", State: map[string]any{domain.KeyOptions: "What else?"}})
		require.NoError(t, store.Save(ctx, conversationID, second))

		got, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		if diff := cmp.Diff(second, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("stack mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Empty stack", func(t *testing.T) {
		id := conversationID + "-empty"
		require.NoError(t, store.Save(ctx, id, domain.NewStack()))
		defer func() { _ = store.Delete(ctx, id) }()

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, conversationID, SampleStack()))

		require.NoError(t, store.Delete(ctx, conversationID), "Delete should not return error")

		_, err := store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		require.NoError(t, store.Save(ctx, id1, SampleStack()))
		require.NoError(t, store.Save(ctx, id2, SampleStack()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
