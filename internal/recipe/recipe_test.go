package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"meal-calendar/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	t.Run("last write wins on duplicate ids", func(t *testing.T) {
		c := NewCatalog().Ingest(
			Recipe{ID: "r1", Label: "First"},
			Recipe{ID: "r1", Label: "Second"},
		)

		got, ok := c.Get("r1")
		require.True(t, ok)
		assert.Equal(t, "Second", got.Label)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("later ingest replaces earlier", func(t *testing.T) {
		c := NewCatalog(Recipe{ID: "r1", Label: "First"})
		c = c.Ingest(Recipe{ID: "r1", Label: "Second"})

		got, _ := c.Get("r1")
		assert.Equal(t, "Second", got.Label)
	})

	t.Run("ingest leaves the original untouched", func(t *testing.T) {
		before := NewCatalog(Recipe{ID: "a"})
		after := before.Ingest(Recipe{ID: "b"})

		_, ok := before.Get("b")
		assert.False(t, ok)
		assert.Equal(t, 1, before.Len())
		assert.Equal(t, 2, after.Len())
	})

	t.Run("missing and empty ids", func(t *testing.T) {
		var c Catalog
		_, ok := c.Get("nope")
		assert.False(t, ok)

		c = c.Ingest(Recipe{Label: "no id"})
		assert.Equal(t, 0, c.Len())
	})

	t.Run("all is sorted by id", func(t *testing.T) {
		c := NewCatalog(Recipe{ID: "c"}, Recipe{ID: "a"}, Recipe{ID: "b"})
		var ids []string
		for _, r := range c.All() {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	d, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewRepository(d.SQL)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	rec := Recipe{
		ID:              "r1",
		Label:           "Pancakes",
		Image:           "http://img.test/p.jpg",
		Calories:        512.5,
		IngredientLines: []string{"1 cup flour", "1 egg", "1 cup milk"},
	}

	t.Run("Get-NotFound", func(t *testing.T) {
		got, err := repo.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Save and Get", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, rec))

		got, err := repo.Get(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, *got)
	})

	t.Run("Save upserts", func(t *testing.T) {
		updated := rec
		updated.Label = "Fluffy Pancakes"
		require.NoError(t, repo.Save(ctx, updated))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := repo.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Fluffy Pancakes", got.Label)
	})

	t.Run("SaveAll and List", func(t *testing.T) {
		require.NoError(t, repo.SaveAll(ctx, []Recipe{{ID: "r3", Label: "Soup"}, {ID: "r2", Label: "Salad"}}))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "r1", all[0].ID)
		assert.Equal(t, "r2", all[1].ID)
		assert.Equal(t, "r3", all[2].ID)
	})

	t.Run("Save rejects empty id", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, Recipe{Label: "anonymous"}))
	})
}
