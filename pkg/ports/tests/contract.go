// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ProfileStoreContract verifies that a ProfileStore implementation adheres to
// the interface contract.
func ProfileStoreContract(t *testing.T, store ports.ProfileStore) {
	t.Helper()
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		p := domain.NewProfile(id)
		p.Set("auth.login", "bob")
		p.Set("count", 42)

		require.NoError(t, store.Save(ctx, p))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)

		login, ok := loaded.Get("auth.login")
		require.True(t, ok)
		assert.Equal(t, "bob", login)

		// JSON backed stores return numbers as float64.
		count, ok := loaded.Get("count")
		require.True(t, ok)
		assert.EqualValues(t, 42, count)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.Set("auth.login", "mallory")

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		login, _ := again.Get("auth.login")
		assert.Equal(t, "bob", login)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := id + "-2"
		require.NoError(t, store.Save(ctx, domain.NewProfile(other)))
		defer func() { _ = store.Delete(ctx, other) }()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, other)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})
}

// ScriptLoaderContract verifies that a ScriptLoader serves the scripts in
// want, keyed by name.
func ScriptLoaderContract(t *testing.T, loader ports.ScriptLoader, want map[string]*domain.Script) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		for name, expected := range want {
			got, err := loader.Load(ctx, name)
			require.NoError(t, err, "loading %s", name)
			assert.Equal(t, name, got.Name)
			assert.Len(t, got.Actions, len(expected.Actions))
			assert.Len(t, got.Procedures, len(expected.Procedures))
			assert.Equal(t, expected.Finally, got.Finally)
			assert.Equal(t, expected.MaxExecutionTime, got.MaxExecutionTime)
		}
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := loader.Load(ctx, "no-such-script")
		assert.ErrorIs(t, err, domain.ErrScriptNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List(ctx)
		require.NoError(t, err)
		for name := range want {
			assert.Contains(t, names, name)
		}
	})
}
