// Package clipper imports a recipe from an arbitrary web page.
package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-calendar/internal/llm"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoRecipe is returned when a page carries no recognisable ingredient list.
var ErrNoRecipe = errors.New("no recipe found on page")

const maxPageSize = 5 << 20

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	extractor  *extractor
}

// Option configures a Clipper.
type Option func(*Clipper)

// WithTextGenerator lets the clipper ask a language model for the recipe when
// the page has no structured recipe data.
func WithTextGenerator(gen llm.TextGenerator) Option {
	return func(c *Clipper) {
		c.extractor = &extractor{textGen: gen}
	}
}

// NewClipper creates a new Clipper instance.
func NewClipper(opts ...Option) *Clipper {
	c := &Clipper{httpClient: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClipURL fetches the page at url and extracts a recipe from it. The recipe ID
// is derived from the URL, so clipping the same page twice yields the same ID.
func (c *Clipper) ClipURL(ctx context.Context, url string) (recipe.Recipe, shared.CallMeta, error) {
	start := time.Now()
	meta := shared.CallMeta{Source: "clipper", Operation: "import"}
	fail := func(err error) (recipe.Recipe, shared.CallMeta, error) {
		meta.Latency = time.Since(start)
		meta.Failed = true
		return recipe.Recipe{}, meta, err
	}

	doc, err := c.fetch(ctx, url)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch content: %w", err))
	}

	r, ok := fromJSONLD(doc)
	if !ok {
		r = fromMarkup(doc)
	}
	if len(r.IngredientLines) == 0 && c.extractor != nil {
		meta.Source = "llm"
		r, meta.Usage, err = c.extractor.extract(ctx, pageData{
			Title: clean(doc.Find("title").First().Text()),
			Text:  clean(doc.Find("body").Text()),
		})
		if err != nil {
			return fail(err)
		}
	}
	if len(r.IngredientLines) == 0 {
		return fail(fmt.Errorf("%w: %s", ErrNoRecipe, url))
	}

	r.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
	r.URL = url
	if r.Label == "" {
		r.Label = clean(doc.Find("title").First().Text())
	}
	if r.Image == "" {
		r.Image, _ = doc.Find(`meta[property="og:image"]`).Attr("content")
	}

	zap.L().Info("Clipped recipe",
		zap.String("url", url),
		zap.String("label", r.Label),
		zap.Int("ingredients", len(r.IngredientLines)))

	meta.Results = 1
	meta.Latency = time.Since(start)
	return r, meta, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "meal-calendar/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
}

// fromJSONLD looks for a schema.org Recipe in the page's ld+json blocks.
func fromJSONLD(doc *goquery.Document) (recipe.Recipe, bool) {
	var found recipe.Recipe
	ok := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			zap.L().Debug("Skipping malformed ld+json block", zap.Error(err))
			return true
		}
		if obj := findRecipeObject(data); obj != nil {
			found, ok = recipeFromObject(obj), true
			return false
		}
		return true
	})
	return found, ok
}

func findRecipeObject(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if obj := findRecipeObject(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if isRecipeType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipeObject(graph)
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch typ := t.(type) {
	case string:
		return typ == "Recipe"
	case []any:
		for _, item := range typ {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromObject(obj map[string]any) recipe.Recipe {
	r := recipe.Recipe{
		Label:           clean(stringValue(obj["name"])),
		Image:           imageValue(obj["image"]),
		IngredientLines: []string{},
	}
	ingredients := obj["recipeIngredient"]
	if ingredients == nil {
		ingredients = obj["ingredients"]
	}
	if list, ok := ingredients.([]any); ok {
		for _, item := range list {
			if line := clean(stringValue(item)); line != "" {
				r.IngredientLines = append(r.IngredientLines, line)
			}
		}
	}
	if nutrition, ok := obj["nutrition"].(map[string]any); ok {
		r.Calories = parseCalories(stringValue(nutrition["calories"]))
	}
	return r
}

// fromMarkup falls back to microdata and then to the list that follows an
// "Ingredients" heading.
func fromMarkup(doc *goquery.Document) recipe.Recipe {
	r := recipe.Recipe{IngredientLines: []string{}}

	doc.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"]`).Each(func(_ int, s *goquery.Selection) {
		if line := clean(s.Text()); line != "" {
			r.IngredientLines = append(r.IngredientLines, line)
		}
	})
	if len(r.IngredientLines) > 0 {
		r.Label = clean(doc.Find(`[itemscope] [itemprop="name"]`).First().Text())
		r.Image, _ = doc.Find(`[itemprop="image"]`).First().Attr("src")
		return r
	}

	doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), "ingredients") {
			return true
		}
		list := h.NextAllFiltered("ul, ol").First()
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if line := clean(li.Text()); line != "" {
				r.IngredientLines = append(r.IngredientLines, line)
			}
		})
		return len(r.IngredientLines) == 0
	})
	r.Label = clean(doc.Find("h1").First().Text())
	return r
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

func imageValue(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		if len(img) > 0 {
			return imageValue(img[0])
		}
	case map[string]any:
		return stringValue(img["url"])
	}
	return ""
}

// parseCalories reads the leading number of values like "320 kcal".
func parseCalories(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
