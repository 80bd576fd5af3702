package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	shoppingdb "meal-calendar/internal/shopping/db"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	queries *shoppingdb.Queries
	db      *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: shoppingdb.New(d),
		db:      d,
	}
}

// Save stores a new snapshot and fills in its ID and creation time.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	createdAt := time.Now().UTC()
	id, err := r.queries.InsertShoppingList(ctx, shoppingdb.InsertShoppingListParams{
		UserID:    list.UserID,
		Items:     string(itemsJSON),
		CreatedAt: createdAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	list.ID = id
	list.CreatedAt = createdAt
	return id, nil
}

// Latest returns the most recent list of userID, or nil if there is none.
func (r *Repository) Latest(ctx context.Context, userID string) (*ShoppingList, error) {
	dbList, err := r.queries.GetLatestShoppingListByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest shopping list: %w", err)
	}

	var items []string
	if err := json.Unmarshal([]byte(dbList.Items), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}

	return &ShoppingList{
		ID:        dbList.ID,
		UserID:    dbList.UserID,
		Items:     items,
		CreatedAt: dbList.CreatedAt,
	}, nil
}
