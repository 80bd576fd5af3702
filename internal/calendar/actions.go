package calendar

import "meal-calendar/internal/recipe"

// ActionType names one of the two calendar mutations.
type ActionType string

const (
	ActionAddRecipe          ActionType = "ADD_RECIPE"
	ActionRemoveFromCalendar ActionType = "REMOVE_FROM_CALENDAR"
)

// Action is a request to change one calendar cell. Recipe is only set for
// ActionAddRecipe.
type Action struct {
	Type   ActionType     `json:"type"`
	Day    Day            `json:"day"`
	Meal   Meal           `json:"meal"`
	Recipe *recipe.Recipe `json:"recipe,omitempty"`
}

// AddRecipe builds an ADD_RECIPE action.
func AddRecipe(day Day, meal Meal, r recipe.Recipe) Action {
	return Action{Type: ActionAddRecipe, Day: day, Meal: meal, Recipe: &r}
}

// RemoveFromCalendar builds a REMOVE_FROM_CALENDAR action.
func RemoveFromCalendar(day Day, meal Meal) Action {
	return Action{Type: ActionRemoveFromCalendar, Day: day, Meal: meal}
}
