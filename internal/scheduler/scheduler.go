package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/internal/delta"
	"github.com/XavierBriggs/Hermes/internal/metrics"
	"github.com/XavierBriggs/Hermes/internal/registry"
	"github.com/XavierBriggs/Hermes/internal/snapshot"
	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const (
	defaultStatRefreshTimeout = 10 * time.Second

	// lateGameWindow is how long after Eastern midnight the previous game day
	// is still fetched
	lateGameWindow = 6 * time.Hour

	// idleWait bounds how long the dispatch loop sleeps when nothing is queued
	idleWait = time.Hour
)

// Config wires the scheduler to its collaborators
type Config struct {
	Registry *registry.LeagueRegistry
	Provider contracts.ScoreProvider
	Notifier contracts.Notifier

	// Refreshers is the per-league stat refresh lookup table. Leagues without an
	// entry never trigger a refresh.
	Refreshers map[models.League]contracts.StatRefresher

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	StatRefreshTimeout time.Duration
}

// leagueState is the per-league state machine entry
type leagueState struct {
	module contracts.LeagueModule
	engine *delta.Engine
	rank   int

	mode     models.Mode
	status   models.LeagueStatus
	interval time.Duration
	nextFire time.Time

	// generation moves whenever a tick starts, the league changes mode or the
	// scheduler stops. A tick only applies its result if it still holds the
	// current generation.
	generation uint64
	inFlight   bool

	// applyMu serializes the apply phase of ticks for the same league
	applyMu sync.Mutex

	index int
}

// LeagueState is a read-only view of one league's schedule entry
type LeagueState struct {
	League      models.League
	DisplayName string
	Mode        models.Mode
	Status      models.LeagueStatus
	Interval    time.Duration
	NextPoll    time.Time
	ActiveGames int
	Polling     bool
}

// TickResult summarizes one execution of the per-league poll cycle
type TickResult struct {
	League        models.League
	Fetched       int
	Applied       int
	Throttled     int
	Completed     int
	Removed       int
	StatusChanged bool
	Stale         bool
}

// Scheduler polls every enabled league at a cadence chosen by its game states
type Scheduler struct {
	provider   contracts.ScoreProvider
	notifier   contracts.Notifier
	refreshers map[models.League]contracts.StatRefresher
	store      *snapshot.Store
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics

	refreshTimeout time.Duration

	mu     sync.Mutex
	states map[models.League]*leagueState
	order  []*leagueState
	queue  fireQueue

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	refresh  sync.WaitGroup
}

// NewScheduler creates a scheduler for the enabled leagues of the registry
func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		provider:       cfg.Provider,
		notifier:       cfg.Notifier,
		refreshers:     cfg.Refreshers,
		store:          snapshot.NewStore(),
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		refreshTimeout: cfg.StatRefreshTimeout,
		states:         make(map[models.League]*leagueState),
		wake:           make(chan struct{}, 1),
		stopChan:       make(chan struct{}),
	}

	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.notifier == nil {
		s.notifier = contracts.NotifierFunc(func(context.Context, models.ChangeEvent) error { return nil })
	}
	if s.refreshTimeout <= 0 {
		s.refreshTimeout = defaultStatRefreshTimeout
	}

	if cfg.Registry != nil {
		for rank, module := range cfg.Registry.Enabled() {
			polling := module.GetPollingConfig()
			st := &leagueState{
				module:   module,
				engine:   delta.NewEngine(polling.DwellTime),
				rank:     rank,
				mode:     models.ModeIdle,
				interval: polling.IdleInterval,
				index:    -1,
			}
			s.states[module.GetLeague()] = st
			s.order = append(s.order, st)
			s.queue.reschedule(st)
		}
	}

	return s
}

// Start polls every league once, establishes the initial schedule and runs the
// dispatch loop until Stop is called or ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	if s.provider == nil {
		return fmt.Errorf("no score provider configured")
	}
	if len(s.order) == 0 {
		return fmt.Errorf("no leagues enabled")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.startup(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	for _, st := range s.LeagueStates() {
		s.logger.Info("league scheduled",
			zap.String("league", string(st.League)),
			zap.Stringer("mode", st.Mode),
			zap.Duration("interval", st.Interval),
		)
	}

	return nil
}

// Stop halts the dispatch loop and waits for in-flight ticks and stat refreshes.
// Results of ticks still in flight are discarded.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		for _, st := range s.order {
			st.generation++
		}
		s.mu.Unlock()

		close(s.stopChan)
		if s.cancel != nil {
			s.cancel()
		}
	})

	s.wg.Wait()
	s.refresh.Wait()
}

// startup polls every league once without stats refresh, then runs the
// mode-transition protocol once. A league whose first poll failed is retried
// after NoScheduledInterval instead of the idle interval.
func (s *Scheduler) startup(ctx context.Context) {
	var failed []*leagueState
	for _, st := range s.order {
		if _, err := s.check(ctx, st, false, false); err != nil {
			s.logger.Warn("initial poll failed",
				zap.String("league", string(st.module.GetLeague())),
				zap.Error(err),
			)
			failed = append(failed, st)
		}
	}
	s.rebuild(ctx)

	if len(failed) == 0 {
		return
	}

	now := s.clock.Now()
	s.mu.Lock()
	for _, st := range failed {
		retry := st.module.GetPollingConfig().NoScheduledInterval
		if retry <= 0 || retry >= st.interval {
			continue
		}
		st.interval = retry
		st.nextFire = now.Add(retry)
		s.queue.reschedule(st)
	}
	s.mu.Unlock()
	s.signal()
}

// run is the single "tick the due leagues" loop
func (s *Scheduler) run(ctx context.Context) {
	for {
		s.dispatchDue(ctx)

		timer := s.clock.Timer(s.untilNext())
		select {
		case <-timer.C:
		case <-s.wake:
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
		timer.Stop()
	}
}

func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	next, ok := s.queue.peek()
	s.mu.Unlock()

	if !ok {
		return idleWait
	}
	wait := next.Sub(s.clock.Now())
	if wait < 0 {
		return 0
	}
	return wait
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// RunDue executes every league whose next fire time has passed and waits for
// those ticks to finish. It returns the number of ticks run.
func (s *Scheduler) RunDue(ctx context.Context) int {
	var done sync.WaitGroup
	n := s.dispatch(ctx, &done)
	done.Wait()
	return n
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	s.dispatch(ctx, nil)
}

func (s *Scheduler) dispatch(ctx context.Context, done *sync.WaitGroup) int {
	select {
	case <-s.stopChan:
		return 0
	default:
	}

	s.mu.Lock()
	due := s.queue.popDue(s.clock.Now())
	for _, st := range due {
		st.inFlight = true
	}
	s.mu.Unlock()

	for _, st := range due {
		s.wg.Add(1)
		if done != nil {
			done.Add(1)
		}
		go func(st *leagueState) {
			defer s.wg.Done()
			if done != nil {
				defer done.Done()
			}

			res, err := s.check(ctx, st, st.module.ShouldRefreshStats(), true)
			if err != nil {
				s.logger.Warn("league tick failed",
					zap.String("league", string(st.module.GetLeague())),
					zap.Error(err),
				)
			}
			s.finish(st, res.StatusChanged)
		}(st)
	}

	return len(due)
}

// finish puts a dispatched league back on the queue. Unless the tick already
// rebuilt the schedule, the interval is recomputed so scheduled mode tightens as
// the next game approaches.
func (s *Scheduler) finish(st *leagueState, rebuilt bool) {
	now := s.clock.Now()

	s.mu.Lock()
	st.inFlight = false
	if !rebuilt {
		st.interval = s.intervalFor(st, now)
		st.nextFire = now.Add(st.interval)
	}
	s.queue.reschedule(st)
	s.mu.Unlock()

	s.signal()
}

// CheckAndUpdateLeagueGames runs one poll cycle for a league outside the regular
// schedule. Unknown or disabled leagues are rejected.
func (s *Scheduler) CheckAndUpdateLeagueGames(ctx context.Context, league models.League, includeStatsRefresh bool) (TickResult, error) {
	s.mu.Lock()
	st, ok := s.states[league]
	s.mu.Unlock()

	if !ok {
		s.logger.Error("refusing to poll unknown league", zap.String("league", string(league)))
		return TickResult{League: league}, fmt.Errorf("check %q: %w", league, models.ErrUnknownLeague)
	}

	return s.check(ctx, st, includeStatsRefresh, true)
}

func (s *Scheduler) check(ctx context.Context, st *leagueState, includeStatsRefresh, allowTransition bool) (TickResult, error) {
	league := st.module.GetLeague()
	res := TickResult{League: league}

	s.mu.Lock()
	st.generation++
	gen := st.generation
	liveTick := st.mode == models.ModeLive
	s.mu.Unlock()

	s.metrics.Tick(league)

	days := s.scoreboardDays(league, liveTick, s.clock.Now())
	raws, err := s.provider.FetchGames(ctx, st.module.GetSportPath(), days)
	if err != nil {
		s.metrics.FetchError(league)
		return res, fmt.Errorf("fetch %s games: %w", league, err)
	}
	res.Fetched = len(raws)

	st.applyMu.Lock()
	defer st.applyMu.Unlock()

	if !s.current(st, gen) {
		s.metrics.Stale(league)
		s.logger.Debug("discarding stale tick", zap.String("league", string(league)))
		res.Stale = true
		return res, nil
	}

	now := s.clock.Now()
	var (
		events  []models.ChangeEvent
		refresh []models.Game
	)
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		raw.League = league
		game := models.NewGame(raw, st.module.GetDefaultColor())
		seen[game.GameID] = struct{}{}

		if game.Status == models.StatusFinal {
			if _, ok := s.store.Complete(game.GameID); ok {
				res.Completed++
				res.StatusChanged = true
				s.metrics.Completed(league)
				events = append(events, models.NewGamesUpdated(game, now))
				s.logger.Info("game final",
					zap.String("game_id", game.GameID),
					zap.String("score", game.ScoreLine()),
				)
			}
			continue
		}

		if s.store.IsCompleted(game.GameID) {
			continue
		}

		var stored *models.Game
		if g, ok := s.store.Get(game.GameID); ok {
			stored = &g
		}

		d := st.engine.Compare(stored, game, s.store.LastUpdate(game.GameID), now)
		if d.Throttled {
			res.Throttled++
			s.metrics.Throttled(league)
			continue
		}
		if !d.Apply {
			if d.ChangeType == delta.ChangeTypeRegression {
				s.logger.Warn("ignoring status regression",
					zap.String("game_id", game.GameID),
					zap.String("stored", string(d.OldStatus)),
					zap.String("incoming", string(game.Status)),
				)
			}
			continue
		}

		if err := s.store.Apply(game, now); err != nil {
			s.logger.Warn("apply game", zap.String("game_id", game.GameID), zap.Error(err))
			continue
		}

		res.Applied++
		s.metrics.Applied(league, string(d.ChangeType))
		if d.StatusChanged() {
			res.StatusChanged = true
		}
		events = append(events, models.NewScoreUpdate(game, now))

		newlyLive := stored == nil || stored.Status != models.StatusInProgress
		if includeStatsRefresh && game.Status == models.StatusInProgress && (liveTick || newlyLive) {
			refresh = append(refresh, game)
		}
	}

	for _, id := range s.store.IDsForLeague(league) {
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := s.store.Remove(id); ok {
			res.Removed++
			res.StatusChanged = true
			s.metrics.Removed(league)
			events = append(events, models.NewGameRemoved(league, id, now))
		}
	}

	for _, event := range events {
		s.notify(ctx, event)
	}

	for _, game := range refresh {
		s.refreshStats(league, game)
	}

	if res.StatusChanged && allowTransition {
		s.rebuild(ctx)
	}

	s.logger.Debug("league tick",
		zap.String("league", string(league)),
		zap.Int("fetched", res.Fetched),
		zap.Int("applied", res.Applied),
		zap.Int("throttled", res.Throttled),
		zap.Int("completed", res.Completed),
		zap.Int("removed", res.Removed),
	)

	return res, nil
}

// scoreboardDays picks the game days a tick fetches. A live league, the early
// hours after Eastern midnight, or a league still tracking a game filed under an
// earlier day also fetch the previous day so late games are not mistaken for
// removals.
func (s *Scheduler) scoreboardDays(league models.League, live bool, now time.Time) models.GameDays {
	today := models.GameDay(now)
	if live || now.Sub(today) < lateGameWindow {
		return models.GameDaysAt(now, true)
	}
	for _, g := range s.store.GamesForLeague(league) {
		if models.GameDay(g.StartTime).Before(today) {
			return models.GameDaysAt(now, true)
		}
	}
	return models.GameDaysAt(now, false)
}

func (s *Scheduler) current(st *leagueState, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.generation == gen
}

// rebuild is the mode-transition protocol: recompute every league's status from
// the full snapshot, re-derive every schedule entry and broadcast league status
func (s *Scheduler) rebuild(ctx context.Context) {
	now := s.clock.Now()
	statuses := s.store.Statuses()

	s.mu.Lock()
	for _, st := range s.order {
		league := st.module.GetLeague()
		status := statuses[league]
		mode := st.module.GetPollingConfig().SelectMode(status)

		if mode != st.mode {
			st.generation++
			s.logger.Info("league mode changed",
				zap.String("league", string(league)),
				zap.Stringer("from", st.mode),
				zap.Stringer("to", mode),
			)
		}

		st.status = status
		st.mode = mode
		st.interval = s.intervalFor(st, now)
		st.nextFire = now.Add(st.interval)

		// In-flight leagues are requeued when their tick finishes
		if st.index >= 0 {
			s.queue.reschedule(st)
		}

		s.metrics.LeagueState(league, st.mode, st.interval, len(s.store.IDsForLeague(league)))
	}
	s.mu.Unlock()

	s.signal()
	s.notify(ctx, models.NewLeagueStatus(statuses, now))
}

// intervalFor derives the poll interval for the league's current mode.
// Callers hold s.mu.
func (s *Scheduler) intervalFor(st *leagueState, now time.Time) time.Duration {
	polling := st.module.GetPollingConfig()
	next, ok := s.store.NextScheduledStart(st.module.GetLeague(), now)
	return polling.Interval(st.mode, next.Sub(now), ok)
}

func (s *Scheduler) notify(ctx context.Context, event models.ChangeEvent) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.NotifyError(event.Type)
		s.logger.Warn("notify failed",
			zap.String("event", string(event.Type)),
			zap.String("key", event.Key()),
			zap.Error(err),
		)
	}
}

// refreshStats triggers the league's stat refresh without blocking the tick
func (s *Scheduler) refreshStats(league models.League, game models.Game) {
	refresher, ok := s.refreshers[league]
	if !ok || refresher == nil {
		return
	}

	s.refresh.Add(1)
	go func() {
		defer s.refresh.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		if err := refresher.Refresh(ctx, game.HomeTeam.ID, game.AwayTeam.ID); err != nil {
			s.metrics.StatRefreshError(league)
			s.logger.Warn("stat refresh failed",
				zap.String("league", string(league)),
				zap.String("game_id", game.GameID),
				zap.Error(err),
			)
		}
	}()
}

// ActiveGames returns every active game as a flat list
func (s *Scheduler) ActiveGames() []models.Game {
	return s.store.Games()
}

// ActiveGamesForLeague returns the active games of one league
func (s *Scheduler) ActiveGamesForLeague(league models.League) []models.Game {
	return s.store.GamesForLeague(league)
}

// Statuses returns the live/scheduled flags of every league
func (s *Scheduler) Statuses() map[models.League]models.LeagueStatus {
	return s.store.Statuses()
}

// LeagueStates returns the schedule entry of every enabled league
func (s *Scheduler) LeagueStates() []LeagueState {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]LeagueState, 0, len(s.order))
	for _, st := range s.order {
		league := st.module.GetLeague()
		states = append(states, LeagueState{
			League:      league,
			DisplayName: st.module.GetDisplayName(),
			Mode:        st.mode,
			Status:      st.status,
			Interval:    st.interval,
			NextPoll:    st.nextFire,
			ActiveGames: len(s.store.IDsForLeague(league)),
			Polling:     st.inFlight,
		})
	}
	return states
}

// LeagueState returns the schedule entry of one league
func (s *Scheduler) LeagueState(league models.League) (LeagueState, error) {
	for _, st := range s.LeagueStates() {
		if st.League == league {
			return st, nil
		}
	}
	return LeagueState{}, fmt.Errorf("league state %q: %w", league, models.ErrUnknownLeague)
}
