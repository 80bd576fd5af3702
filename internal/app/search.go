package app

import (
	"context"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/search"
)

// OpenSearch starts choosing a recipe for a slot of owner's calendar.
func (a *App) OpenSearch(owner string, day calendar.Day, meal calendar.Meal) error {
	if owner == "" {
		return ErrNoUser
	}
	return a.sessions.Get(owner).Open(search.Target{Day: day, Meal: meal})
}

// SubmitSearch runs query in owner's session. Results arrive asynchronously.
func (a *App) SubmitSearch(owner, query string) error {
	return a.sessions.Get(owner).Submit(query)
}

// WaitSearch blocks until owner's pending search resolves.
func (a *App) WaitSearch(ctx context.Context, owner string) (search.Snapshot, error) {
	return a.sessions.Get(owner).Wait(ctx)
}

// SearchState returns owner's session without waiting.
func (a *App) SearchState(owner string) search.Snapshot {
	return a.sessions.Get(owner).Snapshot()
}

// OnSearchResolved registers fn for owner's resolved searches.
func (a *App) OnSearchResolved(owner string, fn func(search.Snapshot)) {
	a.sessions.Get(owner).OnResolved(fn)
}

// SelectResult assigns result index of owner's search to the session's slot.
func (a *App) SelectResult(ctx context.Context, owner string, index int) (planner.Week, error) {
	target, chosen, err := a.sessions.Get(owner).Select(index)
	if err != nil {
		return nil, err
	}
	return a.Dispatch(ctx, owner, calendar.AddRecipe(target.Day, target.Meal, chosen))
}

// SelectResultFrom is SelectResult for a result list rendered at generation gen.
func (a *App) SelectResultFrom(ctx context.Context, owner string, gen uint64, index int) (planner.Week, error) {
	target, chosen, err := a.sessions.Get(owner).SelectFrom(gen, index)
	if err != nil {
		return nil, err
	}
	return a.Dispatch(ctx, owner, calendar.AddRecipe(target.Day, target.Meal, chosen))
}

// CloseSearch dismisses owner's session.
func (a *App) CloseSearch(owner string) {
	if s, ok := a.sessions.Lookup(owner); ok {
		s.Close()
	}
}
