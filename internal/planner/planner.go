// Package planner combines the calendar with the recipe catalog: it applies
// calendar actions and derives the week view that front ends render.
package planner

import (
	"errors"
	"fmt"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/recipe"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingRecipe = errors.New("action has no recipe")
)

// State is everything a week view is derived from.
type State struct {
	Calendar calendar.Store
	Catalog  recipe.Catalog
}

// Reduce applies action to state and returns the next state. The given
// state is left unchanged, also when an error is returned.
func Reduce(state State, action calendar.Action) (State, error) {
	switch action.Type {
	case calendar.ActionAddRecipe:
		if action.Recipe == nil || action.Recipe.ID == "" {
			return state, ErrMissingRecipe
		}
		cal, err := state.Calendar.Assign(action.Day, action.Meal, action.Recipe.ID)
		if err != nil {
			return state, err
		}
		return State{Calendar: cal, Catalog: state.Catalog.Ingest(*action.Recipe)}, nil

	case calendar.ActionRemoveFromCalendar:
		cal, err := state.Calendar.Clear(action.Day, action.Meal)
		if err != nil {
			return state, err
		}
		return State{Calendar: cal, Catalog: state.Catalog}, nil

	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// BuildWeek joins the calendar with the catalog. Days and meals come out in
// calendar.Days and calendar.Meals order. A slot whose recipe is not in the
// catalog is reported as empty.
func BuildWeek(cal calendar.Store, catalog recipe.Catalog) Week {
	week := make(Week, 0, len(calendar.Days))
	for _, day := range calendar.Days {
		meals := make(map[calendar.Meal]*recipe.Recipe, len(calendar.Meals))
		for _, meal := range calendar.Meals {
			meals[meal] = nil
			if id := cal.RecipeID(day, meal); id != "" {
				if r, ok := catalog.Get(id); ok {
					meals[meal] = &r
				}
			}
		}
		week = append(week, DayPlan{Day: day, Meals: meals})
	}
	return week
}

// Week derives the view for s.
func (s State) Week() Week {
	return BuildWeek(s.Calendar, s.Catalog)
}
