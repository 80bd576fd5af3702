package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/planner/plan_db"
)

// PlanRepository stores each user's calendar.
type PlanRepository struct {
	queries *plan_db.Queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: plan_db.New(d),
		db:      d,
	}
}

// Save replaces the stored calendar of userID. An empty calendar removes the
// stored row.
func (r *PlanRepository) Save(ctx context.Context, userID string, cal calendar.Store) error {
	if cal.IsEmpty() {
		if err := r.queries.DeleteCalendar(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete calendar for user %s: %w", userID, err)
		}
		return nil
	}

	data, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("failed to marshal calendar: %w", err)
	}

	err = r.queries.UpsertCalendar(ctx, plan_db.UpsertCalendarParams{
		UserID:    userID,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save calendar for user %s: %w", userID, err)
	}
	return nil
}

// Get returns the calendar of userID. A user without one gets an empty
// calendar.
func (r *PlanRepository) Get(ctx context.Context, userID string) (calendar.Store, error) {
	row, err := r.queries.GetCalendarByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Store{}, nil
		}
		return calendar.Store{}, fmt.Errorf("failed to get calendar for user %s: %w", userID, err)
	}

	var cal calendar.Store
	if err := json.Unmarshal([]byte(row.Data), &cal); err != nil {
		return calendar.Store{}, fmt.Errorf("failed to unmarshal calendar for user %s: %w", userID, err)
	}
	return cal, nil
}
