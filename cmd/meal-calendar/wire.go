package main

import (
	"context"
	"errors"
	"fmt"

	"meal-calendar/internal/app"
	"meal-calendar/internal/clipper"
	"meal-calendar/internal/config"
	"meal-calendar/internal/database"
	"meal-calendar/internal/edamam"
	"meal-calendar/internal/ghost"
	"meal-calendar/internal/llm"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/shopping"

	"go.uber.org/zap"
)

// wiring is the fully wired application plus the resources it owns.
type wiring struct {
	app     *app.App
	db      *database.DB
	metrics *metrics.Store
	closers []func()
}

func (r *wiring) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// setup opens the database and builds the App. Optional collaborators are
// left out when their configuration is missing.
func setup(ctx context.Context, cfg *config.Config) (*wiring, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt := &wiring{db: db, metrics: metrics.NewStore(db.SQL)}
	rt.closers = append(rt.closers, func() {
		if err := db.Close(); err != nil {
			zap.L().Warn("Failed to close database", zap.Error(err))
		}
	})

	textGen, err := newTextGenerator(ctx, cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var clipOpts []clipper.Option
	deps := app.Deps{
		Recipes:       recipe.NewRepository(db.SQL),
		Plans:         planner.NewPlanRepository(db.SQL),
		ShoppingLists: shopping.NewRepository(db.SQL),
		Metrics:       rt.metrics,
		Searcher:      edamam.NewClient(cfg),
		SearchTimeout: cfg.SearchTimeout,
	}
	if textGen != nil {
		clipOpts = append(clipOpts, clipper.WithTextGenerator(textGen))
		deps.Consolidator = shopping.NewConsolidator(textGen)
	}
	deps.Clipper = clipper.NewClipper(clipOpts...)

	publisher, err := ghost.NewClient(cfg)
	switch {
	case err == nil:
		deps.Publisher = publisher
	case errors.Is(err, ghost.ErrNotConfigured):
		zap.L().Debug("Ghost publishing disabled")
	default:
		rt.Close()
		return nil, err
	}

	rt.app = app.NewApp(deps)
	rt.closers = append(rt.closers, rt.app.Close)

	if err := rt.app.Load(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// newTextGenerator picks Gemini, then Groq, and wraps the choice in a response
// cache. It returns nil when no model is configured; consolidation and the
// clipper's model fallback are then off.
func newTextGenerator(ctx context.Context, cfg *config.Config, rt *wiring) (llm.TextGenerator, error) {
	var gen llm.TextGenerator
	switch {
	case cfg.GeminiAPIKey != "":
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = gemini.Close() })
		gen = gemini
	case cfg.GroqAPIKey != "":
		groq, err := llm.NewGroqClient(cfg)
		if err != nil {
			return nil, err
		}
		gen = groq
	default:
		zap.L().Debug("No language model configured")
		return nil, nil
	}

	cached, err := llm.NewCachedGenerator(gen, cfg.LLMCachePath)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() {
		if err := cached.SaveCache(); err != nil {
			zap.L().Warn("Failed to save LLM cache", zap.Error(err))
		}
	})
	return cached, nil
}
