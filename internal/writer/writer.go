// Package writer persists game snapshots to Postgres.
package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 5 * time.Second
)

// Writer batches snapshot upserts into the games table and archives completed games.
// Postgres is a downstream copy; the in-memory snapshot stays authoritative.
type Writer struct {
	db     *sql.DB
	logger *zap.Logger

	batchSize     int
	flushInterval time.Duration

	buffer []models.Game
	mu     sync.Mutex

	// flushMu orders upserts against archives and deletes. It is held from the
	// buffer swap until the upsert commits.
	flushMu sync.Mutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Ensure Writer implements Notifier
var _ contracts.Notifier = (*Writer)(nil)

// Option configures a Writer
type Option func(*Writer)

// WithBatchSize sets how many buffered snapshots trigger an immediate flush
func WithBatchSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithFlushInterval sets the background flush period
func WithFlushInterval(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.flushInterval = d
		}
	}
}

// NewWriter creates a new batching writer
func NewWriter(db *sql.DB, logger *zap.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		db:            db,
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.buffer = make([]models.Game, 0, w.batchSize)
	return w
}

// Start begins the background flush ticker
func (w *Writer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.flushInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.Flush(ctx); err != nil {
					w.logger.Error("flush failed", zap.Error(err))
				}
			case <-w.stopChan:
				// Final flush on shutdown
				flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := w.Flush(flushCtx); err != nil {
					w.logger.Error("final flush failed", zap.Error(err))
				}
				cancel()
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop gracefully shuts down the writer after a final flush
func (w *Writer) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
}

// Ping checks the database connection
func (w *Writer) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// Notify routes a change event to the matching table operation
func (w *Writer) Notify(ctx context.Context, event models.ChangeEvent) error {
	switch event.Type {
	case models.EventScoreUpdate:
		if event.Game == nil {
			return nil
		}
		return w.Write(ctx, *event.Game)

	case models.EventGamesUpdated:
		if event.Game == nil {
			return nil
		}
		w.flushMu.Lock()
		defer w.flushMu.Unlock()

		// Pending upserts land before the row is archived and deleted. If they
		// cannot, the final snapshot still wins over anything buffered for it.
		flushErr := w.flush(ctx)
		w.discard(event.Game.GameID)
		if err := w.archive(ctx, *event.Game); err != nil {
			return errors.Join(flushErr, err)
		}
		return flushErr

	case models.EventGameRemoved:
		w.flushMu.Lock()
		defer w.flushMu.Unlock()

		w.discard(event.GameID)
		return w.deleteGame(ctx, event.GameID)

	case models.EventLeagueStatus:
		return w.UpsertLeagueStatus(ctx, event.Statuses, event.At)
	}
	return nil
}

// Write adds a snapshot to the buffer and flushes if batch size is reached
func (w *Writer) Write(ctx context.Context, game models.Game) error {
	w.mu.Lock()
	w.buffer = append(w.buffer, game.Clone())
	shouldFlush := len(w.buffer) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		return w.Flush(ctx)
	}
	return nil
}

// Pending returns the number of buffered snapshots
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// discard drops buffered snapshots of a game that left the feed
func (w *Writer) discard(gameID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.buffer[:0]
	for _, g := range w.buffer {
		if g.GameID != gameID {
			kept = append(kept, g)
		}
	}
	w.buffer = kept
}

// Flush upserts buffered snapshots into the games table. On failure the
// snapshots go back into the buffer for the next flush.
func (w *Writer) Flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	return w.flush(ctx)
}

func (w *Writer) flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	// Swap buffer
	games := latestOnly(w.buffer)
	w.buffer = make([]models.Game, 0, w.batchSize)
	w.mu.Unlock()

	if err := w.commitGames(ctx, games); err != nil {
		w.requeue(games)
		return err
	}

	w.logger.Debug("flushed game snapshots", zap.Int("count", len(games)))
	return nil
}

func (w *Writer) commitGames(ctx context.Context, games []models.Game) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := w.upsertGames(ctx, tx, games); err != nil {
		return fmt.Errorf("upsert games: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// requeue puts snapshots from a failed flush ahead of anything buffered since,
// so newer snapshots of the same game still win
func (w *Writer) requeue(games []models.Game) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = append(games, w.buffer...)
}

// latestOnly keeps the last buffered snapshot per game, in first-seen order.
// One UNNEST upsert cannot touch the same row twice.
func latestOnly(buffer []models.Game) []models.Game {
	index := make(map[string]int, len(buffer))
	out := make([]models.Game, 0, len(buffer))
	for _, g := range buffer {
		if i, ok := index[g.GameID]; ok {
			out[i] = g
			continue
		}
		index[g.GameID] = len(out)
		out = append(out, g)
	}
	return out
}

// upsertGames inserts or updates snapshot rows keyed by game_id
func (w *Writer) upsertGames(ctx context.Context, tx *sql.Tx, games []models.Game) error {
	if len(games) == 0 {
		return nil
	}

	query := `
		INSERT INTO games (
			game_id, provider_id, league, status, start_time,
			home_team, away_team, home_score, away_score,
			period, clock, detail, payload, updated_at
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::timestamptz[],
			$6::text[], $7::text[], $8::int[], $9::int[],
			$10::text[], $11::text[], $12::text[], $13::jsonb[], $14::timestamptz[]
		)
		ON CONFLICT (game_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			period = EXCLUDED.period,
			clock = EXCLUDED.clock,
			detail = EXCLUDED.detail,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	n := len(games)
	gameIDs := make([]string, n)
	providerIDs := make([]string, n)
	leagues := make([]string, n)
	statuses := make([]string, n)
	startTimes := make([]time.Time, n)
	homeTeams := make([]string, n)
	awayTeams := make([]string, n)
	homeScores := make([]sql.NullInt64, n)
	awayScores := make([]sql.NullInt64, n)
	periods := make([]string, n)
	clocks := make([]string, n)
	details := make([]string, n)
	payloads := make([]string, n)
	updatedAts := make([]time.Time, n)

	now := time.Now().UTC()
	for i, g := range games {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal game %s: %w", g.GameID, err)
		}

		gameIDs[i] = g.GameID
		providerIDs[i] = g.ProviderID
		leagues[i] = string(g.League)
		statuses[i] = string(g.Status)
		startTimes[i] = g.StartTime
		homeTeams[i] = g.HomeTeam.Abbreviation
		awayTeams[i] = g.AwayTeam.Abbreviation
		homeScores[i] = nullScore(g.HomeTeam.Score)
		awayScores[i] = nullScore(g.AwayTeam.Score)
		periods[i] = g.Period
		clocks[i] = g.Clock
		details[i] = g.Detail
		payloads[i] = string(payload)
		updatedAts[i] = now
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(gameIDs), pq.Array(providerIDs), pq.Array(leagues), pq.Array(statuses), pq.Array(startTimes),
		pq.Array(homeTeams), pq.Array(awayTeams), pq.Array(homeScores), pq.Array(awayScores),
		pq.Array(periods), pq.Array(clocks), pq.Array(details), pq.Array(payloads), pq.Array(updatedAts),
	)
	return err
}

// Archive records a completed game in game_results and removes it from games
func (w *Writer) Archive(ctx context.Context, game models.Game) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	return w.archive(ctx, game)
}

func (w *Writer) archive(ctx context.Context, game models.Game) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", game.GameID, err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_results (
			game_id, league, start_time, home_team, away_team, home_score, away_score, payload, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id)
		DO UPDATE SET
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			payload = EXCLUDED.payload,
			completed_at = EXCLUDED.completed_at
	`,
		game.GameID, string(game.League), game.StartTime,
		game.HomeTeam.Abbreviation, game.AwayTeam.Abbreviation,
		nullScore(game.HomeTeam.Score), nullScore(game.AwayTeam.Score),
		string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game result %s: %w", game.GameID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE game_id = $1`, game.GameID); err != nil {
		return fmt.Errorf("delete game %s: %w", game.GameID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a game that disappeared from the provider feed
func (w *Writer) Delete(ctx context.Context, gameID string) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	return w.deleteGame(ctx, gameID)
}

func (w *Writer) deleteGame(ctx context.Context, gameID string) error {
	if _, err := w.db.ExecContext(ctx, `DELETE FROM games WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	return nil
}

// UpsertLeagueStatus records the latest live/scheduled flags per league
func (w *Writer) UpsertLeagueStatus(ctx context.Context, statuses map[models.League]models.LeagueStatus, at time.Time) error {
	if len(statuses) == 0 {
		return nil
	}

	leagues := make([]string, 0, len(statuses))
	hasLive := make([]bool, 0, len(statuses))
	hasScheduled := make([]bool, 0, len(statuses))

	// Canonical order keeps the statement deterministic
	for _, league := range models.AllLeagues() {
		st, ok := statuses[league]
		if !ok {
			continue
		}
		leagues = append(leagues, string(league))
		hasLive = append(hasLive, st.HasLive)
		hasScheduled = append(hasScheduled, st.HasScheduled)
	}

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO league_status (league, has_live, has_scheduled, updated_at)
		SELECT UNNEST($1::text[]), UNNEST($2::boolean[]), UNNEST($3::boolean[]), $4
		ON CONFLICT (league)
		DO UPDATE SET
			has_live = EXCLUDED.has_live,
			has_scheduled = EXCLUDED.has_scheduled,
			updated_at = EXCLUDED.updated_at
	`, pq.Array(leagues), pq.Array(hasLive), pq.Array(hasScheduled), at.UTC())
	if err != nil {
		return fmt.Errorf("upsert league status: %w", err)
	}
	return nil
}

func nullScore(score *int) sql.NullInt64 {
	if score == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*score), Valid: true}
}
