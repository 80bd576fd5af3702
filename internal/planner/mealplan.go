package planner

import (
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/recipe"
)

// DayPlan is the rendered plan for a single day. Meals always holds every
// meal; a nil recipe marks an empty slot.
type DayPlan struct {
	Day   calendar.Day                     `json:"day" yaml:"day"`
	Meals map[calendar.Meal]*recipe.Recipe `json:"meals" yaml:"meals"`
}

// Week is the render-ready view of a calendar: one DayPlan per day, sunday
// first.
type Week []DayPlan

// Recipe returns the recipe planned for the slot, or nil.
func (w Week) Recipe(day calendar.Day, meal calendar.Meal) *recipe.Recipe {
	for _, dp := range w {
		if dp.Day == day {
			return dp.Meals[meal]
		}
	}
	return nil
}

// Assigned counts the non-empty slots.
func (w Week) Assigned() int {
	n := 0
	for _, dp := range w {
		for _, meal := range calendar.Meals {
			if dp.Meals[meal] != nil {
				n++
			}
		}
	}
	return n
}
