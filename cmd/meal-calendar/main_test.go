package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"meal-calendar/internal/auth"
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/database"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var pancakes = recipe.Recipe{
	ID:              "pancakes",
	Label:           "Pancakes",
	IngredientLines: []string{"flour", "egg", "milk"},
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("RECIPE_APP_ID", "id")
	t.Setenv("RECIPE_APP_KEY", "key")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("API_SIGNING_KEY", "cli-test-key")
	t.Setenv("GHOST_API_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	d, err := database.NewDB(dbPath)
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, recipe.NewRepository(d.SQL).Save(context.Background(), pancakes))
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_AssignWeekShoppingClear(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "assign", "Sunday", "breakfast", "pancakes")
	require.NoError(t, err)
	assert.Contains(t, out, "Pancakes")

	out, err = run(t, "week", "--format", "json")
	require.NoError(t, err)
	var week planner.Week
	require.NoError(t, json.Unmarshal([]byte(out), &week))
	require.Len(t, week, 7)
	assert.Equal(t, "pancakes", week.Recipe(calendar.Sunday, calendar.Breakfast).ID)

	out, err = run(t, "shopping-list")
	require.NoError(t, err)
	assert.Equal(t, "- flour\n- egg\n- milk\n", out)

	// another user's calendar is untouched
	out, err = run(t, "shopping-list", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing planned yet.")

	_, err = run(t, "clear", "sunday", "breakfast")
	require.NoError(t, err)
	out, err = run(t, "shopping-list")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing planned yet.")
}

func TestCLI_Errors(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "assign", "someday", "lunch", "pancakes")
	assert.ErrorIs(t, err, calendar.ErrInvalidDay)

	_, err = run(t, "assign", "monday", "lunch", "missing")
	assert.Error(t, err)

	_, err = run(t, "week", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "publish")
	assert.Error(t, err)

	_, err = run(t, "shopping-list", "--consolidate")
	assert.Error(t, err)
}

func TestCLI_MissingCredentials(t *testing.T) {
	setupEnv(t)
	t.Setenv("RECIPE_APP_ID", "")

	_, err := run(t, "week")
	assert.ErrorContains(t, err, "RECIPE_APP_ID")
}

func TestCLI_Token(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "token", "--user", "alice")
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("cli-test-key", 0)
	require.NoError(t, err)
	user, err := issuer.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestCLI_MetricsCleanup(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "metrics-cleanup", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 0 metrics\n", out)
}

func TestWriteWeek(t *testing.T) {
	state, err := planner.Reduce(planner.State{}, calendar.AddRecipe(calendar.Monday, calendar.Dinner, pancakes))
	require.NoError(t, err)
	week := state.Week()

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeWeek(&buf, "text", week))
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 8)
		assert.True(t, strings.HasPrefix(lines[0], "DAY"))
		assert.Contains(t, lines[2], "Monday")
		assert.True(t, strings.HasSuffix(lines[2], "Pancakes"))
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeWeek(&buf, "yaml", week))

		var decoded []struct {
			Day   string                    `yaml:"day"`
			Meals map[string]*recipe.Recipe `yaml:"meals"`
		}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 7)
		assert.Equal(t, "monday", decoded[1].Day)
		require.NotNil(t, decoded[1].Meals["dinner"])
		assert.Equal(t, "Pancakes", decoded[1].Meals["dinner"].Label)
		assert.Nil(t, decoded[1].Meals["lunch"])
	})
}

func TestPrintRecipesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRecipes(&buf, nil))
	assert.Equal(t, "No recipes found.\n", buf.String())
}
