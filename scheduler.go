package valuation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/etnz/valuation/common"
)

// Pair identifies a holding: an asset in a portfolio.
type Pair struct {
	Portfolio string
	Asset     string
}

func (p Pair) String() string { return p.Portfolio + "/" + p.Asset }

// RecomputeFunc recomputes the holding of a pair.
type RecomputeFunc func(ctx context.Context, pair Pair) error

// Scheduler debounces holding recomputes per pair.
//
// Every Schedule call for a pair pushes its due time to now + debounce, so a
// burst of edits collapses into a single recompute that reads the
// transactions as they are when it runs. A pair is never recomputed twice
// concurrently: a pair scheduled while in flight runs again once due after
// the current recompute ends.
type Scheduler struct {
	debounce  time.Duration
	recompute RecomputeFunc
	log       *common.Logger
	now       func() time.Time

	mu       sync.Mutex
	due      map[Pair]time.Time
	inflight map[Pair]bool
	wg       sync.WaitGroup
}

// NewScheduler creates a Scheduler calling recompute at most once per debounce window and pair.
func NewScheduler(debounce time.Duration, recompute RecomputeFunc, logger *common.Logger) *Scheduler {
	return &Scheduler{
		debounce:  debounce,
		recompute: recompute,
		log:       logger.OrSilent(),
		now:       time.Now,
		due:       make(map[Pair]time.Time),
		inflight:  make(map[Pair]bool),
	}
}

// Schedule requests a recompute of pair after the debounce window.
func (s *Scheduler) Schedule(pair Pair) { s.ScheduleAt(pair, s.now()) }

// ScheduleAt requests a recompute of pair, as if requested at the given time.
func (s *Scheduler) ScheduleAt(pair Pair, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.due[pair] = at.Add(s.debounce)
	s.log.Debug().Str("pair", pair.String()).Time("due", s.due[pair]).Msg("recompute scheduled")
}

// Pending returns the pairs waiting for a recompute, sorted.
func (s *Scheduler) Pending() []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	pairs := make([]Pair, 0, len(s.due))
	for p := range s.due {
		pairs = append(pairs, p)
	}
	sortPairs(pairs)
	return pairs
}

// InFlight reports whether a recompute of pair is running.
func (s *Scheduler) InFlight(pair Pair) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[pair]
}

// RunDue runs the recomputes due at now, concurrently, and waits for them.
// Pairs already in flight are left pending. It returns the pairs it ran.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) ([]Pair, error) {
	s.mu.Lock()
	var ready []Pair
	for p, due := range s.due {
		if due.After(now) || s.inflight[p] {
			continue
		}
		ready = append(ready, p)
		delete(s.due, p)
		s.inflight[p] = true
	}
	s.mu.Unlock()
	sortPairs(ready)

	errs := make([]error, len(ready))
	var wg sync.WaitGroup
	for i, p := range ready {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.run(ctx, p)
		}()
	}
	wg.Wait()
	return ready, errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, p Pair) error {
	defer func() {
		s.mu.Lock()
		delete(s.inflight, p)
		s.mu.Unlock()
	}()
	if err := s.recompute(ctx, p); err != nil {
		s.log.Error().Str("pair", p.String()).Err(err).Msg("recompute failed")
		return fmt.Errorf("recompute %v: %w", p, err)
	}
	return nil
}

// Run drives the scheduler with a ticker until ctx is done, then waits for
// running recomputes and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case now := <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				// errors are logged by run.
				_, _ = s.RunDue(ctx, now)
			}()
		}
	}
}

func sortPairs(pairs []Pair) {
	slices.SortFunc(pairs, func(a, b Pair) int {
		return cmp.Or(cmp.Compare(a.Portfolio, b.Portfolio), cmp.Compare(a.Asset, b.Asset))
	})
}
