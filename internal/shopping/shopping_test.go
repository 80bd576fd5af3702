package shopping

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/database"
	"meal-calendar/internal/llm"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recipeA = recipe.Recipe{ID: "a", Label: "Omelette", IngredientLines: []string{"egg", "milk"}}
	recipeB = recipe.Recipe{ID: "b", Label: "Sandwich", IngredientLines: []string{"bread"}}
	recipeC = recipe.Recipe{ID: "c", Label: "Scramble", IngredientLines: []string{"2 eggs", "egg", "butter"}}
)

func dispatch(t *testing.T, state planner.State, actions ...calendar.Action) planner.State {
	t.Helper()
	for _, a := range actions {
		var err error
		state, err = planner.Reduce(state, a)
		require.NoError(t, err)
	}
	return state
}

func TestBuild(t *testing.T) {
	t.Run("concatenates in day then meal order", func(t *testing.T) {
		state := dispatch(t, planner.State{},
			calendar.AddRecipe(calendar.Monday, calendar.Lunch, recipeB),
			calendar.AddRecipe(calendar.Monday, calendar.Breakfast, recipeA),
		)

		assert.Equal(t, []string{"egg", "milk", "bread"}, Build(state.Week()))
	})

	t.Run("keeps duplicates verbatim", func(t *testing.T) {
		state := dispatch(t, planner.State{},
			calendar.AddRecipe(calendar.Sunday, calendar.Dinner, recipeC),
			calendar.AddRecipe(calendar.Saturday, calendar.Breakfast, recipeC),
			calendar.AddRecipe(calendar.Tuesday, calendar.Breakfast, recipeA),
		)

		items := Build(state.Week())
		assert.Equal(t, []string{"2 eggs", "egg", "butter", "egg", "milk", "2 eggs", "egg", "butter"}, items)
	})

	t.Run("length equals the sum of ingredient counts", func(t *testing.T) {
		state := dispatch(t, planner.State{},
			calendar.AddRecipe(calendar.Wednesday, calendar.Breakfast, recipeA),
			calendar.AddRecipe(calendar.Wednesday, calendar.Lunch, recipeB),
			calendar.AddRecipe(calendar.Thursday, calendar.Dinner, recipeC),
			calendar.AddRecipe(calendar.Friday, calendar.Dinner, recipeA),
		)

		want := 0
		week := state.Week()
		for _, dp := range week {
			for _, r := range dp.Meals {
				if r != nil {
					want += len(r.IngredientLines)
				}
			}
		}
		assert.Len(t, Build(week), want)
	})

	t.Run("cleared slots are excluded", func(t *testing.T) {
		state := dispatch(t, planner.State{},
			calendar.AddRecipe(calendar.Monday, calendar.Breakfast, recipeA),
			calendar.AddRecipe(calendar.Monday, calendar.Lunch, recipeB),
			calendar.RemoveFromCalendar(calendar.Monday, calendar.Breakfast),
		)

		assert.Equal(t, []string{"bread"}, Build(state.Week()))
	})

	t.Run("empty week gives an empty list", func(t *testing.T) {
		items := Build(planner.State{}.Week())
		require.NotNil(t, items)
		assert.Empty(t, items)
	})
}

type mockTextGen struct {
	res    string
	err    error
	prompt string
	calls  int
}

func (m *mockTextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	m.prompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.res,
		Usage:   shared.TokenUsage{PromptTokens: 40, CompletionTokens: 8, Model: "mock"},
	}, nil
}

func TestConsolidator(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &mockTextGen{res: `{"items": ["3 eggs", "milk"]}`}
		items, meta, err := NewConsolidator(gen).Consolidate(ctx, []string{"2 eggs", "egg", "milk"})
		require.NoError(t, err)

		assert.Equal(t, []string{"3 eggs", "milk"}, items)
		assert.Contains(t, gen.prompt, "- 2 eggs\n- egg\n- milk\n")
		assert.Equal(t, 40, meta.Usage.PromptTokens)
		assert.Equal(t, 2, meta.Results)
		assert.False(t, meta.Failed)
	})

	t.Run("EmptyListSkipsModel", func(t *testing.T) {
		gen := &mockTextGen{}
		items, _, err := NewConsolidator(gen).Consolidate(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("LLMError", func(t *testing.T) {
		gen := &mockTextGen{err: errors.New("quota exceeded")}
		_, meta, err := NewConsolidator(gen).Consolidate(ctx, []string{"egg"})
		require.Error(t, err)
		assert.Equal(t, "failed to get LLM response: quota exceeded", err.Error())
		assert.True(t, meta.Failed)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		gen := &mockTextGen{res: "this is not json"}
		_, _, err := NewConsolidator(gen).Consolidate(ctx, []string{"egg"})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to parse consolidated list"))
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	d, err := database.NewDB(filepath.Join(t.TempDir(), "shopping.db"))
	require.NoError(t, err)
	defer d.Close()

	repo := NewRepository(d.SQL)

	t.Run("Latest-NotFound", func(t *testing.T) {
		list, err := repo.Latest(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, list)
	})

	t.Run("Save and Latest", func(t *testing.T) {
		first := &ShoppingList{UserID: "u1", Items: []string{"egg"}}
		id1, err := repo.Save(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, id1, first.ID)
		assert.False(t, first.CreatedAt.IsZero())

		second := &ShoppingList{UserID: "u1", Items: []string{"egg", "milk", "egg"}}
		id2, err := repo.Save(ctx, second)
		require.NoError(t, err)
		assert.Greater(t, id2, id1)

		_, err = repo.Save(ctx, &ShoppingList{UserID: "u2", Items: []string{"bread"}})
		require.NoError(t, err)

		latest, err := repo.Latest(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, id2, latest.ID)
		assert.Equal(t, []string{"egg", "milk", "egg"}, latest.Items)
	})
}
