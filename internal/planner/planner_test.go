package planner

import (
	"context"
	"path/filepath"
	"testing"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/database"
	"meal-calendar/internal/recipe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recipeA = recipe.Recipe{ID: "a", Label: "Omelette", IngredientLines: []string{"egg", "milk"}}
	recipeB = recipe.Recipe{ID: "b", Label: "Toast", IngredientLines: []string{"bread"}}
)

func TestReduce(t *testing.T) {
	t.Run("add recipe assigns and catalogs", func(t *testing.T) {
		next, err := Reduce(State{}, calendar.AddRecipe(calendar.Monday, calendar.Breakfast, recipeA))
		require.NoError(t, err)

		assert.Equal(t, "a", next.Calendar.RecipeID(calendar.Monday, calendar.Breakfast))
		got, ok := next.Catalog.Get("a")
		require.True(t, ok)
		assert.Equal(t, recipeA.Label, got.Label)
	})

	t.Run("remove clears the slot and keeps the catalog", func(t *testing.T) {
		state, err := Reduce(State{}, calendar.AddRecipe(calendar.Monday, calendar.Breakfast, recipeA))
		require.NoError(t, err)

		next, err := Reduce(state, calendar.RemoveFromCalendar(calendar.Monday, calendar.Breakfast))
		require.NoError(t, err)

		assert.True(t, next.Calendar.IsEmpty())
		_, ok := next.Catalog.Get("a")
		assert.True(t, ok)
	})

	t.Run("input state is not modified", func(t *testing.T) {
		before := State{}
		_, err := Reduce(before, calendar.AddRecipe(calendar.Friday, calendar.Dinner, recipeB))
		require.NoError(t, err)

		assert.True(t, before.Calendar.IsEmpty())
		assert.Equal(t, 0, before.Catalog.Len())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Reduce(State{}, calendar.Action{Type: "EAT_CAKE"})
		assert.ErrorIs(t, err, ErrUnknownAction)

		_, err = Reduce(State{}, calendar.Action{Type: calendar.ActionAddRecipe, Day: calendar.Monday})
		assert.ErrorIs(t, err, ErrMissingRecipe)

		_, err = Reduce(State{}, calendar.AddRecipe(calendar.Day(12), calendar.Lunch, recipeA))
		assert.ErrorIs(t, err, calendar.ErrInvalidDay)

		_, err = Reduce(State{}, calendar.RemoveFromCalendar(calendar.Monday, calendar.Meal(5)))
		assert.ErrorIs(t, err, calendar.ErrInvalidMeal)
	})
}

func TestBuildWeek(t *testing.T) {
	t.Run("fixed day and meal order", func(t *testing.T) {
		cal, err := calendar.Store{}.Assign(calendar.Saturday, calendar.Dinner, "b")
		require.NoError(t, err)
		cal, err = cal.Assign(calendar.Sunday, calendar.Lunch, "a")
		require.NoError(t, err)

		week := BuildWeek(cal, recipe.NewCatalog(recipeA, recipeB))

		require.Len(t, week, 7)
		var days []string
		for _, dp := range week {
			days = append(days, dp.Day.String())
			assert.Len(t, dp.Meals, 3)
		}
		want := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
		if diff := cmp.Diff(want, days); diff != "" {
			t.Errorf("day order mismatch (-want +got):\n%s", diff)
		}

		require.NotNil(t, week.Recipe(calendar.Sunday, calendar.Lunch))
		assert.Equal(t, "Omelette", week.Recipe(calendar.Sunday, calendar.Lunch).Label)
		assert.Equal(t, "Toast", week.Recipe(calendar.Saturday, calendar.Dinner).Label)
		assert.Nil(t, week.Recipe(calendar.Monday, calendar.Breakfast))
		assert.Equal(t, 2, week.Assigned())
	})

	t.Run("unknown recipe ids render as empty", func(t *testing.T) {
		cal, err := calendar.Store{}.Assign(calendar.Tuesday, calendar.Lunch, "ghost")
		require.NoError(t, err)

		week := BuildWeek(cal, recipe.Catalog{})
		assert.Nil(t, week.Recipe(calendar.Tuesday, calendar.Lunch))
		assert.Equal(t, 0, week.Assigned())
	})

	t.Run("assign then clear shows the slot empty", func(t *testing.T) {
		state, err := Reduce(State{}, calendar.AddRecipe(calendar.Monday, calendar.Breakfast, recipeA))
		require.NoError(t, err)
		state, err = Reduce(state, calendar.RemoveFromCalendar(calendar.Monday, calendar.Breakfast))
		require.NoError(t, err)

		assert.Nil(t, state.Week().Recipe(calendar.Monday, calendar.Breakfast))
	})
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	d, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer d.Close()

	repo := NewPlanRepository(d.SQL)

	t.Run("unknown user has an empty calendar", func(t *testing.T) {
		cal, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.True(t, cal.IsEmpty())
	})

	t.Run("save and reload", func(t *testing.T) {
		cal, err := calendar.Store{}.Assign(calendar.Wednesday, calendar.Dinner, "b")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "u1", cal))

		got, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, cal, got)

		cleared, err := cal.Clear(calendar.Wednesday, calendar.Dinner)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "u1", cleared))

		got, err = repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, got.IsEmpty())
	})

	t.Run("an empty calendar removes the stored row", func(t *testing.T) {
		cal, err := calendar.Store{}.Assign(calendar.Friday, calendar.Lunch, "a")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "u2", cal))

		var rows int
		require.NoError(t, d.SQL.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendars WHERE user_id = ?", "u2").Scan(&rows))
		assert.Equal(t, 1, rows)

		require.NoError(t, repo.Save(ctx, "u2", calendar.Store{}))
		require.NoError(t, d.SQL.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendars WHERE user_id = ?", "u2").Scan(&rows))
		assert.Equal(t, 0, rows)
	})
}
