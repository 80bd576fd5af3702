package app

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/ghost"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/shopping"

	"go.uber.org/zap"
)

//go:embed week.html.tmpl
var weekHTML string

var weekTmpl = template.Must(template.New("week").Parse(weekHTML))

type weekRow struct {
	Day   string
	Cells []*recipe.Recipe
}

// RenderWeekHTML renders week and its shopping list as an HTML fragment.
func RenderWeekHTML(week planner.Week) (string, error) {
	data := struct {
		Meals []string
		Rows  []weekRow
		Items []string
	}{Items: shopping.Build(week)}

	for _, meal := range calendar.Meals {
		data.Meals = append(data.Meals, meal.Title())
	}
	for _, dp := range week {
		row := weekRow{Day: dp.Day.Title()}
		for _, meal := range calendar.Meals {
			row.Cells = append(row.Cells, week.Recipe(dp.Day, meal))
		}
		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := weekTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render week: %w", err)
	}
	return buf.String(), nil
}

// PublishWeek posts userID's week to Ghost, as a draft unless publish is set.
func (a *App) PublishWeek(ctx context.Context, userID string, publish bool) (*ghost.Post, error) {
	if a.publisher == nil {
		return nil, fmt.Errorf("%w: publishing needs GHOST_API_URL and GHOST_ADMIN_API_KEY", ErrNotConfigured)
	}
	week, err := a.Week(ctx, userID)
	if err != nil {
		return nil, err
	}
	html, err := RenderWeekHTML(week)
	if err != nil {
		return nil, err
	}

	title := "Meal plan for the week of " + time.Now().Format("January 2, 2006")
	post, err := a.publisher.CreatePost(ctx, title, html, publish)
	if err != nil {
		return nil, fmt.Errorf("failed to save to ghost: %w", err)
	}
	zap.L().Info("Week published",
		zap.String("user", userID),
		zap.String("post_id", post.ID),
		zap.Int("meals", week.Assigned()),
		zap.Bool("published", publish))
	return post, nil
}
