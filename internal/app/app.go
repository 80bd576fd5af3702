// Package app wires the calendar, the recipe catalog and the external
// collaborators into the operations the front ends call.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/ghost"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/search"
	"meal-calendar/internal/shared"
	"meal-calendar/internal/shopping"

	"go.uber.org/zap"
)

var (
	ErrUnknownRecipe = errors.New("unknown recipe")
	ErrNotConfigured = errors.New("feature not configured")
	ErrNoUser        = errors.New("user ID is required")
)

// Clipper extracts a recipe from a web page.
type Clipper interface {
	ClipURL(ctx context.Context, url string) (recipe.Recipe, shared.CallMeta, error)
}

// Consolidator merges duplicate shopping list lines.
type Consolidator interface {
	Consolidate(ctx context.Context, items []string) ([]string, shared.CallMeta, error)
}

// Deps holds the application's dependencies. Searcher and the repositories
// are required; the rest switch optional features on.
type Deps struct {
	Recipes       *recipe.Repository
	Plans         *planner.PlanRepository
	ShoppingLists *shopping.Repository
	Metrics       *metrics.Store

	Searcher      search.Fetcher
	SearchTimeout time.Duration

	Clipper      Clipper
	Publisher    ghost.Client
	Consolidator Consolidator
}

// App holds the catalog and every user's calendar in memory and writes each
// change through to the database before it becomes visible.
type App struct {
	recipeRepo   *recipe.Repository
	planRepo     *planner.PlanRepository
	shoppingRepo *shopping.Repository
	metricsStore *metrics.Store

	searcher     search.Fetcher
	clipper      Clipper
	publisher    ghost.Client
	consolidator Consolidator

	sessions *search.SessionStore

	mu        sync.Mutex
	catalog   recipe.Catalog
	calendars map[string]calendar.Store
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	a := &App{
		recipeRepo:   d.Recipes,
		planRepo:     d.Plans,
		shoppingRepo: d.ShoppingLists,
		metricsStore: d.Metrics,
		searcher:     d.Searcher,
		clipper:      d.Clipper,
		publisher:    d.Publisher,
		consolidator: d.Consolidator,
		calendars:    make(map[string]calendar.Store),
	}
	a.sessions = search.NewSessionStore(search.FetcherFunc(a.fetchRecipes), d.SearchTimeout)
	return a
}

// Load fills the catalog from the database.
func (a *App) Load(ctx context.Context) error {
	recipes, err := a.recipeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recipes: %w", err)
	}

	a.mu.Lock()
	a.catalog = a.catalog.Ingest(recipes...)
	n := a.catalog.Len()
	a.mu.Unlock()

	zap.L().Info("Catalog loaded", zap.Int("recipes", n))
	return nil
}

// Close stops every search session and waits for pending fetches.
func (a *App) Close() {
	a.sessions.Shutdown()
}

// Catalog returns the current catalog value.
func (a *App) Catalog() recipe.Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog
}

// SearchRecipes runs query once and adds the results to the catalog.
func (a *App) SearchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return a.fetchRecipes(ctx, query)
}

// fetchRecipes is the search backend shared by direct searches and search
// sessions. Each completed call is recorded in the metrics store; fetches
// abandoned by their session are not. Results without an ID are dropped
// since they can be neither stored nor selected.
func (a *App) fetchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	start := time.Now()
	results, err := a.searcher.FetchRecipes(ctx, query)
	if errors.Is(err, context.Canceled) {
		zap.L().Debug("Recipe search abandoned", zap.String("query", query))
		return nil, err
	}
	a.record(ctx, shared.CallMeta{
		Source:    "edamam",
		Operation: "search",
		Results:   len(results),
		Latency:   time.Since(start),
		Failed:    err != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("recipe search for %q failed: %w", query, err)
	}

	results = withIDs(results)
	if err := a.Ingest(ctx, results...); err != nil {
		zap.L().Warn("Failed to store search results", zap.String("query", query), zap.Error(err))
	}
	return results, nil
}

// Ingest persists recipes and merges them into the catalog. Recipes without
// an ID are skipped.
func (a *App) Ingest(ctx context.Context, recipes ...recipe.Recipe) error {
	recipes = withIDs(recipes)
	if len(recipes) == 0 {
		return nil
	}
	if err := a.recipeRepo.SaveAll(ctx, recipes); err != nil {
		return err
	}

	a.mu.Lock()
	a.catalog = a.catalog.Ingest(recipes...)
	a.mu.Unlock()
	return nil
}

func withIDs(recipes []recipe.Recipe) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.ID == "" {
			zap.L().Warn("Dropping recipe without ID", zap.String("label", r.Label))
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dispatch applies action to the calendar of userID and returns the new week.
func (a *App) Dispatch(ctx context.Context, userID string, action calendar.Action) (planner.Week, error) {
	if userID == "" {
		return nil, ErrNoUser
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cal, err := a.calendarLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	state := planner.State{Calendar: cal, Catalog: a.catalog}
	next, err := planner.Reduce(state, action)
	if err != nil {
		return nil, err
	}

	if action.Recipe != nil {
		if err := a.recipeRepo.Save(ctx, *action.Recipe); err != nil {
			return nil, fmt.Errorf("failed to persist recipe: %w", err)
		}
	}
	if err := a.planRepo.Save(ctx, userID, next.Calendar); err != nil {
		return nil, err
	}

	a.calendars[userID] = next.Calendar
	a.catalog = next.Catalog
	zap.L().Debug("Calendar updated",
		zap.String("user", userID),
		zap.String("action", string(action.Type)),
		zap.Stringer("day", action.Day),
		zap.Stringer("meal", action.Meal))
	return next.Week(), nil
}

// Assign places the catalog recipe recipeID into a slot.
func (a *App) Assign(ctx context.Context, userID string, day calendar.Day, meal calendar.Meal, recipeID string) (planner.Week, error) {
	r, ok := a.Catalog().Get(recipeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecipe, recipeID)
	}
	return a.Dispatch(ctx, userID, calendar.AddRecipe(day, meal, r))
}

// Clear empties a slot.
func (a *App) Clear(ctx context.Context, userID string, day calendar.Day, meal calendar.Meal) (planner.Week, error) {
	return a.Dispatch(ctx, userID, calendar.RemoveFromCalendar(day, meal))
}

// Week returns the rendered week of userID.
func (a *App) Week(ctx context.Context, userID string) (planner.Week, error) {
	state, err := a.state(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Week(), nil
}

// ShoppingList builds the list for the current week and stores a snapshot.
func (a *App) ShoppingList(ctx context.Context, userID string) (*shopping.ShoppingList, error) {
	week, err := a.Week(ctx, userID)
	if err != nil {
		return nil, err
	}
	list := &shopping.ShoppingList{UserID: userID, Items: shopping.Build(week)}
	if _, err := a.shoppingRepo.Save(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// LatestShoppingList returns the last stored snapshot of userID's list, or
// nil when none was built yet.
func (a *App) LatestShoppingList(ctx context.Context, userID string) (*shopping.ShoppingList, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	return a.shoppingRepo.Latest(ctx, userID)
}

// StoredRecipes counts the recipes persisted in the database.
func (a *App) StoredRecipes(ctx context.Context) (int, error) {
	return a.recipeRepo.Count(ctx)
}

// ConsolidatedShoppingList asks the language model to merge duplicate lines
// of the current list.
func (a *App) ConsolidatedShoppingList(ctx context.Context, userID string) ([]string, error) {
	if a.consolidator == nil {
		return nil, fmt.Errorf("%w: shopping list consolidation needs GEMINI_API_KEY or GROQ_API_KEY", ErrNotConfigured)
	}
	week, err := a.Week(ctx, userID)
	if err != nil {
		return nil, err
	}
	list := shopping.Build(week)
	if len(list) == 0 {
		return list, nil
	}
	items, meta, err := a.consolidator.Consolidate(ctx, list)
	a.record(ctx, meta)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ImportURL clips a recipe from a web page into the catalog.
func (a *App) ImportURL(ctx context.Context, url string) (recipe.Recipe, error) {
	if a.clipper == nil {
		return recipe.Recipe{}, fmt.Errorf("%w: recipe import", ErrNotConfigured)
	}
	r, meta, err := a.clipper.ClipURL(ctx, url)
	a.record(ctx, meta)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if err := a.Ingest(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

func (a *App) state(ctx context.Context, userID string) (planner.State, error) {
	if userID == "" {
		return planner.State{}, ErrNoUser
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cal, err := a.calendarLocked(ctx, userID)
	if err != nil {
		return planner.State{}, err
	}
	return planner.State{Calendar: cal, Catalog: a.catalog}, nil
}

func (a *App) calendarLocked(ctx context.Context, userID string) (calendar.Store, error) {
	if cal, ok := a.calendars[userID]; ok {
		return cal, nil
	}
	cal, err := a.planRepo.Get(ctx, userID)
	if err != nil {
		return calendar.Store{}, err
	}
	a.calendars[userID] = cal
	return cal, nil
}

func (a *App) record(ctx context.Context, meta shared.CallMeta) {
	if a.metricsStore == nil {
		return
	}
	if err := a.metricsStore.RecordMeta(context.WithoutCancel(ctx), meta); err != nil {
		zap.L().Warn("Failed to record metrics", zap.String("operation", meta.Operation), zap.Error(err))
	}
}
