package writer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/pkg/models"
	"github.com/XavierBriggs/Hermes/pkg/testutil"
)

var testAt = time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)

func liveGame(providerID string, home, away int) models.Game {
	return testutil.NewLiveGame(models.NBA, providerID, testAt, home, away)
}

func newMockWriter(t *testing.T, opts ...Option) (*Writer, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewWriter(db, zap.NewNop(), opts...), mock
}

func TestWriter_BuffersUntilBatchSize(t *testing.T) {
	w, mock := newMockWriter(t, WithBatchSize(2))
	ctx := context.Background()

	require.NoError(t, w.Notify(ctx, models.NewScoreUpdate(liveGame("1", 2, 0), testAt)))
	assert.Equal(t, 1, w.Pending())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, w.Notify(ctx, models.NewScoreUpdate(liveGame("2", 0, 3), testAt)))
	assert.Equal(t, 0, w.Pending())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_FlushEmptyIsNoop(t *testing.T) {
	w, mock := newMockWriter(t)

	require.NoError(t, w.Flush(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_FlushRollsBackOnError(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, liveGame("1", 2, 0)))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillReturnError(errors.New("relation \"games\" does not exist"))
	mock.ExpectRollback()

	err := w.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert games")
	assert.Equal(t, 1, w.Pending(), "failed snapshots are kept for the next flush")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_RequeuedSnapshotsYieldToNewer(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, liveGame("1", 2, 0)))

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	require.Error(t, w.Flush(ctx))

	require.NoError(t, w.Write(ctx, liveGame("1", 5, 0)))

	w.mu.Lock()
	pending := latestOnly(w.buffer)
	w.mu.Unlock()
	require.Len(t, pending, 1)
	assert.Equal(t, 5, *pending[0].HomeTeam.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_ArchiveWaitsForInFlightFlush(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, liveGame("1", 100, 98)))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillDelayFor(50 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO game_results`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM games`).
		WithArgs("nba-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	flushed := make(chan error, 1)
	go func() { flushed <- w.Flush(ctx) }()

	// The ticker flush has taken the buffer and is still upserting
	require.Eventually(t, func() bool { return w.Pending() == 0 }, time.Second, time.Millisecond)

	final := liveGame("1", 110, 104)
	final.Status = models.StatusFinal
	require.NoError(t, w.Notify(ctx, models.NewGamesUpdated(final, testAt)))

	require.NoError(t, <-flushed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_FailedFlushStillArchivesFinal(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, liveGame("1", 100, 98)))
	require.NoError(t, w.Write(ctx, liveGame("2", 40, 38)))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO game_results`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM games`).
		WithArgs("nba-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	final := liveGame("1", 110, 104)
	final.Status = models.StatusFinal
	err := w.Notify(ctx, models.NewGamesUpdated(final, testAt))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert games")

	// Only the other game's snapshot waits for the next flush
	assert.Equal(t, 1, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_CompletedGameIsArchived(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Notify(ctx, models.NewScoreUpdate(liveGame("1", 100, 98), testAt)))

	final := liveGame("1", 110, 104)
	final.Status = models.StatusFinal

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO game_results`).
		WithArgs("nba-1", "NBA", testAt, "LAL", "BOS", int64(110), int64(104), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM games`).
		WithArgs("nba-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, w.Notify(ctx, models.NewGamesUpdated(final, testAt)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_RemovedGameIsDeletedAndDropsBufferedSnapshots(t *testing.T) {
	w, mock := newMockWriter(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, liveGame("1", 2, 0)))
	require.NoError(t, w.Write(ctx, liveGame("2", 0, 0)))

	mock.ExpectExec(`DELETE FROM games`).
		WithArgs("nba-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, w.Notify(ctx, models.NewGameRemoved(models.NBA, "nba-1", testAt)))
	assert.Equal(t, 1, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_LeagueStatus(t *testing.T) {
	w, mock := newMockWriter(t)

	mock.ExpectExec(`INSERT INTO league_status`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	event := models.NewLeagueStatus(map[models.League]models.LeagueStatus{
		models.NBA: {HasLive: true},
		models.NHL: {HasScheduled: true},
	}, testAt)
	require.NoError(t, w.Notify(context.Background(), event))

	require.NoError(t, w.Notify(context.Background(), models.NewLeagueStatus(nil, testAt)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriter_StopFlushes(t *testing.T) {
	w, mock := newMockWriter(t, WithFlushInterval(time.Hour))
	ctx := context.Background()

	w.Start(ctx)
	require.NoError(t, w.Write(ctx, liveGame("1", 2, 0)))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO games`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w.Stop()
	w.Stop()

	assert.Equal(t, 0, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestOnly(t *testing.T) {
	buffer := []models.Game{
		liveGame("1", 2, 0),
		liveGame("2", 0, 0),
		liveGame("1", 4, 0),
	}

	out := latestOnly(buffer)
	require.Len(t, out, 2)
	assert.Equal(t, "nba-1", out[0].GameID)
	assert.Equal(t, 4, *out[0].HomeTeam.Score)
	assert.Equal(t, "nba-2", out[1].GameID)
}

func TestNullScore(t *testing.T) {
	assert.False(t, nullScore(nil).Valid)

	v := 7
	got := nullScore(&v)
	assert.True(t, got.Valid)
	assert.EqualValues(t, 7, got.Int64)
}
