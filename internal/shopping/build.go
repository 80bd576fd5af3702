// Package shopping derives shopping lists from a planned week.
package shopping

import (
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/planner"
)

// Build lists the ingredient lines of every planned recipe, day by day and
// meal by meal, each recipe's lines in their stored order. Lines are kept
// verbatim, duplicates included.
func Build(week planner.Week) []string {
	items := []string{}
	for _, dp := range week {
		for _, meal := range calendar.Meals {
			if r := dp.Meals[meal]; r != nil {
				items = append(items, r.IngredientLines...)
			}
		}
	}
	return items
}
