package edamam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meal-calendar/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{
		RecipeAPIURL: url,
		RecipeAppID:  "test_id",
		RecipeAppKey: "test_key",
	})
}

func TestFetchRecipes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "chicken soup", r.URL.Query().Get("q"))
			assert.Equal(t, "test_id", r.URL.Query().Get("app_id"))
			assert.Equal(t, "test_key", r.URL.Query().Get("app_key"))

			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"q": "chicken soup",
				"count": 3,
				"hits": [
					{"recipe": {
						"uri": "http://www.edamam.com/ontologies/edamam.owl#recipe_abc123",
						"label": "Chicken Soup",
						"image": "https://img.test/soup.jpg",
						"url": "https://food.test/soup",
						"calories": 812.5,
						"ingredientLines": ["1 chicken", "2 carrots"]
					}},
					{"recipe": {
						"uri": "urn:custom:xyz",
						"label": "Broth",
						"image": "https://img.test/broth.jpg"
					}},
					{"recipe": {"label": "Mystery"}}
				]
			}`)
		}))
		defer server.Close()

		got, err := newTestClient(server.URL).FetchRecipes(context.Background(), "chicken soup")
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, "abc123", got[0].ID)
		assert.Equal(t, "Chicken Soup", got[0].Label)
		assert.Equal(t, "https://food.test/soup", got[0].URL)
		assert.InDelta(t, 812.5, got[0].Calories, 0.001)
		assert.Equal(t, []string{"1 chicken", "2 carrots"}, got[0].IngredientLines)

		assert.Equal(t, "urn:custom:xyz", got[1].ID)
		assert.NotNil(t, got[1].IngredientLines)
		assert.Empty(t, got[1].IngredientLines)

		assert.Equal(t, "Mystery", got[2].ID)
	})

	t.Run("NoHits", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"hits": []}`)
		}))
		defer server.Close()

		got, err := newTestClient(server.URL).FetchRecipes(context.Background(), "zzz")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, "bad credentials")
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchRecipes(context.Background(), "soup")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
		assert.Contains(t, err.Error(), "bad credentials")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>")
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchRecipes(context.Background(), "soup")
		assert.Error(t, err)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := newTestClient(server.URL).FetchRecipes(ctx, "soup")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
