// Package edamam queries the Edamam recipe search API.
package edamam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meal-calendar/internal/config"
	"meal-calendar/internal/recipe"
)

type hit struct {
	Recipe apiRecipe `json:"recipe"`
}

type apiRecipe struct {
	URI             string   `json:"uri"`
	Label           string   `json:"label"`
	Image           string   `json:"image"`
	URL             string   `json:"url"`
	IngredientLines []string `json:"ingredientLines"`
	Calories        float64  `json:"calories"`
}

type searchResponse struct {
	Hits []hit `json:"hits"`
}

// Client fetches recipes matching a free-text query.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	appKey     string
}

// NewClient creates a new recipe search client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.RecipeAPIURL,
		appID:      cfg.RecipeAppID,
		appKey:     cfg.RecipeAppKey,
	}
}

// FetchRecipes returns the hits for query in the order the API ranks them.
func (c *Client) FetchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid recipe API URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("app_id", c.appID)
	q.Set("app_key", c.appKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recipe api error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	recipes := make([]recipe.Recipe, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		recipes = append(recipes, toRecipe(h.Recipe))
	}
	return recipes, nil
}

func toRecipe(r apiRecipe) recipe.Recipe {
	lines := r.IngredientLines
	if lines == nil {
		lines = []string{}
	}
	return recipe.Recipe{
		ID:              recipeID(r),
		Label:           r.Label,
		Image:           r.Image,
		URL:             r.URL,
		Calories:        r.Calories,
		IngredientLines: lines,
	}
}

// recipeID takes the fragment after "#recipe_" in the URI, falling back to
// the whole URI and then the label.
func recipeID(r apiRecipe) string {
	if _, frag, ok := strings.Cut(r.URI, "#recipe_"); ok && frag != "" {
		return frag
	}
	if r.URI != "" {
		return r.URI
	}
	return r.Label
}
