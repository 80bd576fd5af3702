package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/search"

	"go.uber.org/zap"
)

const maxWait = 30 * time.Second

type weekResponse struct {
	User string       `json:"user"`
	Week planner.Week `json:"week"`
}

type shoppingListResponse struct {
	Items        []string `json:"items"`
	Consolidated bool     `json:"consolidated"`
}

type searchResponse struct {
	State      search.State    `json:"state"`
	Target     *search.Target  `json:"target,omitempty"`
	Query      string          `json:"query,omitempty"`
	Results    []recipe.Recipe `json:"results"`
	Error      string          `json:"error,omitempty"`
	Generation uint64          `json:"generation"`
}

func toSearchResponse(snap search.Snapshot) searchResponse {
	resp := searchResponse{
		State:      snap.State,
		Query:      snap.Query,
		Results:    snap.Results,
		Generation: snap.Generation,
	}
	if snap.State != search.Closed {
		t := snap.Target
		resp.Target = &t
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stored, err := s.app.StoredRecipes(r.Context())
	if err != nil {
		zap.L().Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"recipes":        s.app.Catalog().Len(),
		"stored_recipes": stored,
	})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	week, err := s.app.Week(r.Context(), user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{User: user, Week: week})
}

func slotFrom(r *http.Request) (calendar.Day, calendar.Meal, error) {
	day, err := calendar.ParseDay(r.PathValue("day"))
	if err != nil {
		return 0, 0, err
	}
	meal, err := calendar.ParseMeal(r.PathValue("meal"))
	if err != nil {
		return 0, 0, err
	}
	return day, meal, nil
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	day, meal, err := slotFrom(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	var body struct {
		RecipeID string `json:"recipe_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.RecipeID == "" {
		writeError(w, "recipe_id is required", http.StatusBadRequest)
		return
	}

	user := userFrom(r)
	week, err := s.app.Assign(r.Context(), user, day, meal, body.RecipeID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{User: user, Week: week})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	day, meal, err := slotFrom(r)
	if err != nil {
		writeAppError(w, err)
		return
	}
	user := userFrom(r)
	week, err := s.app.Clear(r.Context(), user, day, meal)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{User: user, Week: week})
}

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if consolidate, _ := strconv.ParseBool(r.URL.Query().Get("consolidate")); consolidate {
		items, err := s.app.ConsolidatedShoppingList(r.Context(), user)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shoppingListResponse{Items: items, Consolidated: true})
		return
	}

	list, err := s.app.ShoppingList(r.Context(), user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{Items: list.Items})
}

func (s *Server) handleLatestShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.LatestShoppingList(r.Context(), userFrom(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	if list == nil {
		writeError(w, "no shopping list has been built yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecipes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recipes": s.app.Catalog().All()})
}

func (s *Server) handleRecipeSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	results, err := s.app.SearchRecipes(r.Context(), q)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if !strings.HasPrefix(body.URL, "http://") && !strings.HasPrefix(body.URL, "https://") {
		writeError(w, "url must be an http(s) URL", http.StatusBadRequest)
		return
	}
	rec, err := s.app.ImportURL(r.Context(), body.URL)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	publish, _ := strconv.ParseBool(r.URL.Query().Get("publish"))
	post, err := s.app.PublishWeek(r.Context(), userFrom(r), publish)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleOpenSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Day  *calendar.Day  `json:"day"`
		Meal *calendar.Meal `json:"meal"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Day == nil || body.Meal == nil {
		writeError(w, "day and meal are required", http.StatusBadRequest)
		return
	}
	user := userFrom(r)
	if err := s.app.OpenSearch(user, *body.Day, *body.Meal); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(s.app.SearchState(user)))
}

func (s *Server) handleSubmitSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user := userFrom(r)
	if err := s.app.SubmitSearch(user, body.Query); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSearchResponse(s.app.SearchState(user)))
}

func (s *Server) handleSearchState(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		snap, err := s.app.WaitSearch(ctx, user)
		if err != nil && ctx.Err() == nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSearchResponse(snap))
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(s.app.SearchState(user)))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index      int     `json:"index"`
		Generation *uint64 `json:"generation,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	user := userFrom(r)
	var (
		week planner.Week
		err  error
	)
	if body.Generation != nil {
		week, err = s.app.SelectResultFrom(r.Context(), user, *body.Generation, body.Index)
	} else {
		week, err = s.app.SelectResult(r.Context(), user, body.Index)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{User: user, Week: week})
}

func (s *Server) handleCloseSearch(w http.ResponseWriter, r *http.Request) {
	s.app.CloseSearch(userFrom(r))
	w.WriteHeader(http.StatusNoContent)
}
