package snapshot

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/Hermes/pkg/models"
)

// ErrCompleted is returned when an update targets a game that already finished
var ErrCompleted = errors.New("game already completed")

// Store is the in-memory snapshot of active games.
// A game id lives in at most one of the active map and the completed set.
type Store struct {
	mu         sync.RWMutex
	active     map[string]models.Game
	completed  map[string]struct{}
	lastUpdate map[string]time.Time
	order      map[string]uint64
	seq        uint64
}

// NewStore creates an empty snapshot store
func NewStore() *Store {
	return &Store{
		active:     make(map[string]models.Game),
		completed:  make(map[string]struct{}),
		lastUpdate: make(map[string]time.Time),
		order:      make(map[string]uint64),
	}
}

// Get returns a copy of the active game with the given id
func (s *Store) Get(gameID string) (models.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.active[gameID]
	if !ok {
		return models.Game{}, false
	}
	return game.Clone(), true
}

// Apply stores game as the current snapshot and records now as its last update
func (s *Store) Apply(game models.Game, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.completed[game.GameID]; done {
		return ErrCompleted
	}

	if _, exists := s.order[game.GameID]; !exists {
		s.seq++
		s.order[game.GameID] = s.seq
	}
	s.active[game.GameID] = game.Clone()
	s.lastUpdate[game.GameID] = now
	return nil
}

// Complete moves an active game into the completed set and returns its last snapshot.
// It reports false when the id was not active.
func (s *Store) Complete(gameID string) (models.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.active[gameID]
	if !ok {
		return models.Game{}, false
	}

	s.drop(gameID)
	s.completed[gameID] = struct{}{}
	return game, true
}

// Remove deletes an active game without marking it completed
func (s *Store) Remove(gameID string) (models.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.active[gameID]
	if !ok {
		return models.Game{}, false
	}

	s.drop(gameID)
	return game, true
}

func (s *Store) drop(gameID string) {
	delete(s.active, gameID)
	delete(s.lastUpdate, gameID)
	delete(s.order, gameID)
}

// IsCompleted reports whether the id has been moved to the completed set
func (s *Store) IsCompleted(gameID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.completed[gameID]
	return ok
}

// LastUpdate returns when the game's snapshot was last applied
func (s *Store) LastUpdate(gameID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastUpdate[gameID]
}

// IDsForLeague returns the ids of every active game in the league
func (s *Store) IDsForLeague(league models.League) []string {
	games := s.GamesForLeague(league)
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return ids
}

// Games returns every active game ordered by start time, then id
func (s *Store) Games() []models.Game {
	return s.collect(func(models.Game) bool { return true })
}

// GamesForLeague returns the league's active games ordered by start time, then id
func (s *Store) GamesForLeague(league models.League) []models.Game {
	return s.collect(func(g models.Game) bool { return g.League == league })
}

func (s *Store) collect(keep func(models.Game) bool) []models.Game {
	s.mu.RLock()
	games := make([]models.Game, 0, len(s.active))
	for _, g := range s.active {
		if keep(g) {
			games = append(games, g.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if !games[i].StartTime.Equal(games[j].StartTime) {
			return games[i].StartTime.Before(games[j].StartTime)
		}
		return games[i].GameID < games[j].GameID
	})
	return games
}

// Count returns the number of active games
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.active)
}

// LeagueStatus scans the league's active games for live and scheduled ones
func (s *Store) LeagueStatus(league models.League) models.LeagueStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.leagueStatusLocked(league)
}

func (s *Store) leagueStatusLocked(league models.League) models.LeagueStatus {
	var status models.LeagueStatus
	for _, g := range s.active {
		if g.League != league {
			continue
		}
		switch g.Status {
		case models.StatusInProgress:
			status.HasLive = true
		case models.StatusScheduled:
			status.HasScheduled = true
		}
	}
	return status
}

// Statuses recomputes the status of every supported league from one consistent view
func (s *Store) Statuses() map[models.League]models.LeagueStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[models.League]models.LeagueStatus, len(models.AllLeagues()))
	for _, league := range models.AllLeagues() {
		statuses[league] = s.leagueStatusLocked(league)
	}
	return statuses
}

// NextScheduledStart returns the start time of the league's earliest future-starting
// scheduled game. Ties go to the game observed first. When every scheduled game's start
// time has already passed, the earliest one is returned so the caller keeps polling tightly.
func (s *Store) NextScheduledStart(league models.League, now time.Time) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		future, past         time.Time
		futureSeq, pastSeq   uint64
		haveFuture, havePast bool
	)

	for id, g := range s.active {
		if g.League != league || g.Status != models.StatusScheduled {
			continue
		}
		seq := s.order[id]
		if g.StartTime.After(now) {
			if !haveFuture || earlier(g.StartTime, seq, future, futureSeq) {
				future, futureSeq, haveFuture = g.StartTime, seq, true
			}
			continue
		}
		if !havePast || earlier(g.StartTime, seq, past, pastSeq) {
			past, pastSeq, havePast = g.StartTime, seq, true
		}
	}

	if haveFuture {
		return future, true
	}
	return past, havePast
}

func earlier(t time.Time, seq uint64, than time.Time, thanSeq uint64) bool {
	if t.Equal(than) {
		return seq < thanSeq
	}
	return t.Before(than)
}
