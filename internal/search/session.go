// Package search drives the "pick a recipe for a slot" workflow: a target
// slot is opened, a query is submitted, results arrive asynchronously and one
// of them is selected.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/recipe"

	"go.uber.org/zap"
)

var (
	ErrNotOpen      = errors.New("search session is not open")
	ErrNotReady     = errors.New("search results are not ready")
	ErrNoSuchResult = errors.New("no such search result")
	ErrStaleResults = errors.New("search results are out of date")
)

const DefaultTimeout = 15 * time.Second

// State of a session.
type State int

const (
	Closed State = iota
	Idle
	Searching
	Ready
)

var stateNames = [...]string{"closed", "idle", "searching", "ready"}

func (s State) String() string {
	if s < Closed || s > Ready {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Target is the calendar slot a search fills.
type Target struct {
	Day  calendar.Day  `json:"day"`
	Meal calendar.Meal `json:"meal"`
}

func (t Target) String() string { return t.Day.String() + "/" + t.Meal.String() }

// Fetcher runs a recipe query.
type Fetcher interface {
	FetchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query string) ([]recipe.Recipe, error)

func (f FetcherFunc) FetchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return f(ctx, query)
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	State      State
	Target     Target
	Query      string
	Results    []recipe.Recipe
	Err        error
	Generation uint64
}

// Session is safe for concurrent use.
type Session struct {
	fetcher Fetcher
	timeout time.Duration

	mu         sync.Mutex
	state      State
	target     Target
	query      string
	results    []recipe.Recipe
	lastErr    error
	gen        uint64
	cancel     context.CancelFunc
	done       chan struct{}
	onResolved func(Snapshot)

	wg sync.WaitGroup
}

// NewSession returns a closed session. A non-positive timeout uses
// DefaultTimeout.
func NewSession(fetcher Fetcher, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{fetcher: fetcher, timeout: timeout}
}

// OnResolved registers fn to be called, outside the session lock, each time a
// current fetch resolves. Dropped fetches do not trigger it.
func (s *Session) OnResolved(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResolved = fn
}

// Open points the session at target and leaves it idle. Any fetch still in
// flight is abandoned.
func (s *Session) Open(target Target) error {
	if !target.Day.Valid() {
		return fmt.Errorf("%w: %d", calendar.ErrInvalidDay, int(target.Day))
	}
	if !target.Meal.Valid() {
		return fmt.Errorf("%w: %d", calendar.ErrInvalidMeal, int(target.Meal))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	s.state = Idle
	s.target = target
	s.query = ""
	s.results = nil
	s.lastErr = nil
	return nil
}

// Submit starts a fetch for query. A blank query is ignored. Submitting again
// while a fetch runs cancels the earlier one.
func (s *Session) Submit(query string) error {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return ErrNotOpen
	}
	if query == "" {
		return nil
	}

	s.abandonLocked()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	done := make(chan struct{})
	s.state = Searching
	s.query = query
	s.results = nil
	s.lastErr = nil
	s.cancel = cancel
	s.done = done

	s.wg.Add(1)
	go s.fetch(ctx, cancel, s.gen, query, done)
	return nil
}

func (s *Session) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)
	defer cancel()

	start := time.Now()
	results, err := s.fetcher.FetchRecipes(ctx, query)

	s.mu.Lock()
	if gen != s.gen || s.state != Searching {
		s.mu.Unlock()
		zap.L().Debug("Dropping stale search result", zap.String("query", query), zap.Uint64("generation", gen))
		return
	}
	s.cancel = nil
	if err != nil {
		s.state = Idle
		s.lastErr = err
		zap.L().Warn("Recipe search failed", zap.String("query", query), zap.Error(err))
	} else {
		if results == nil {
			results = []recipe.Recipe{}
		}
		s.state = Ready
		s.results = results
		zap.L().Debug("Recipe search resolved",
			zap.String("query", query),
			zap.Int("results", len(results)),
			zap.Duration("latency", time.Since(start)))
	}
	snap := s.snapshotLocked()
	listener := s.onResolved
	s.mu.Unlock()

	if listener != nil {
		listener(snap)
	}
}

// Wait blocks until the current fetch, if any, has resolved and its
// listener has returned, or until ctx is done. It returns the snapshot at
// that point.
func (s *Session) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()
		if done == nil {
			return s.Snapshot(), nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}

		s.mu.Lock()
		settled := s.done == nil || s.done == done
		snap := s.snapshotLocked()
		s.mu.Unlock()
		if settled {
			return snap, nil
		}
	}
}

// Select returns the target and the recipe at index and closes the session.
func (s *Session) Select(index int) (Target, recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(index)
}

// SelectFrom is Select guarded by the generation the caller rendered. It
// fails with ErrStaleResults when the session has moved on since.
func (s *Session) SelectFrom(gen uint64, index int) (Target, recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Closed && gen != s.gen {
		return Target{}, recipe.Recipe{}, ErrStaleResults
	}
	return s.selectLocked(index)
}

func (s *Session) selectLocked(index int) (Target, recipe.Recipe, error) {
	switch s.state {
	case Closed:
		return Target{}, recipe.Recipe{}, ErrNotOpen
	case Ready:
	default:
		return Target{}, recipe.Recipe{}, ErrNotReady
	}
	if index < 0 || index >= len(s.results) {
		return Target{}, recipe.Recipe{}, fmt.Errorf("%w: %d", ErrNoSuchResult, index)
	}

	target, chosen := s.target, s.results[index]
	s.closeLocked()
	return target, chosen, nil
}

// Close dismisses the session and invalidates any fetch in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Shutdown closes the session and waits for fetch goroutines to return.
func (s *Session) Shutdown() {
	s.Close()
	s.wg.Wait()
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) closeLocked() {
	s.abandonLocked()
	s.state = Closed
	s.target = Target{}
	s.query = ""
	s.results = nil
	s.lastErr = nil
}

// abandonLocked cancels the in-flight fetch and bumps the generation so its
// result is dropped if it still arrives.
func (s *Session) abandonLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.done = nil
	s.gen++
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Target:     s.target,
		Query:      s.query,
		Err:        s.lastErr,
		Generation: s.gen,
		Results:    slices.Clone(s.results),
	}
	return snap
}
