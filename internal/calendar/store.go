// Package calendar holds the weekly calendar: which recipe is planned for
// each day and meal, and the two actions that change it.
package calendar

import (
	"encoding/json"
	"fmt"
)

// Store maps every day and meal to a recipe ID. An empty string marks an
// empty cell. Store is a value; Assign and Clear return modified copies.
type Store struct {
	cells [len(Days)][len(Meals)]string
}

func check(day Day, meal Meal) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
	}
	if !meal.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMeal, int(meal))
	}
	return nil
}

// Assign returns a copy of s with the cell set to recipeID, replacing any
// earlier assignment.
func (s Store) Assign(day Day, meal Meal, recipeID string) (Store, error) {
	if err := check(day, meal); err != nil {
		return s, err
	}
	s.cells[day][meal] = recipeID
	return s, nil
}

// Clear returns a copy of s with the cell emptied. Clearing an empty cell is
// not an error.
func (s Store) Clear(day Day, meal Meal) (Store, error) {
	return s.Assign(day, meal, "")
}

// RecipeID returns the ID planned for the cell, or "" if it is empty or the
// keys are out of range.
func (s Store) RecipeID(day Day, meal Meal) string {
	if check(day, meal) != nil {
		return ""
	}
	return s.cells[day][meal]
}

// IsEmpty reports whether no cell holds a recipe.
func (s Store) IsEmpty() bool {
	return s == Store{}
}

// MarshalJSON always writes all seven days with all three meals; empty cells
// are null.
func (s Store) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]*string, len(Days))
	for _, day := range Days {
		meals := make(map[string]*string, len(Meals))
		for _, meal := range Meals {
			if id := s.cells[day][meal]; id != "" {
				meals[meal.String()] = &id
			} else {
				meals[meal.String()] = nil
			}
		}
		out[day.String()] = meals
	}
	return json.Marshal(out)
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var in map[string]map[string]*string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var next Store
	for dayName, meals := range in {
		day, err := ParseDay(dayName)
		if err != nil {
			return err
		}
		for mealName, id := range meals {
			meal, err := ParseMeal(mealName)
			if err != nil {
				return err
			}
			if id != nil {
				next.cells[day][meal] = *id
			}
		}
	}
	*s = next
	return nil
}
