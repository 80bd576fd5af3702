package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	db "meal-calendar/internal/recipe/db"

	"go.uber.org/zap"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	queries *db.Queries
	db      *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: db.New(d),
		db:      d,
	}
}

// Save inserts or replaces a recipe.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	if rec.ID == "" {
		return fmt.Errorf("failed to save recipe %q: missing id", rec.Label)
	}
	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	return r.queries.InsertRecipe(ctx, db.InsertRecipeParams{
		ID:        rec.ID,
		Data:      string(recipeJSON),
		UpdatedAt: time.Now().UTC(),
	})
}

// SaveAll stores recipes in one transaction.
func (r *Repository) SaveAll(ctx context.Context, recs []Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := &Repository{queries: r.queries.WithTx(tx), db: r.db}
	for _, rec := range recs {
		if err := txRepo.Save(ctx, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get retrieves a recipe by its ID. It returns nil when there is none.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	dbRecipe, err := r.queries.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(dbRecipe.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// List retrieves all recipes. Rows that no longer decode are skipped.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	dbRecipes, err := r.queries.ListAllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]Recipe, 0, len(dbRecipes))
	for _, dbRec := range dbRecipes {
		var rec Recipe
		if err := json.Unmarshal([]byte(dbRec.Data), &rec); err != nil {
			zap.L().Warn("Skipping unreadable recipe row", zap.String("id", dbRec.ID), zap.Error(err))
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.queries.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return int(count), nil
}
