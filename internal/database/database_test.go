package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"courtbook/internal/models"
	"courtbook/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWindow is the open window as of Monday 2025-06-02.
var testWindow = schedule.AvailableDates(schedule.Date{Year: 2025, Month: 6, Day: 2})

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "courtbook.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedMember(t *testing.T, db *DB, id string) *models.Member {
	t.Helper()
	m := &models.Member{
		ID:        id,
		FirstName: "First " + id,
		LastName:  "Last " + id,
		Email:     id + "@club.example",
		Phone:     "+33600" + id,
	}
	require.NoError(t, db.CreateMember(context.Background(), m))
	return m
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")

	first, err := NewDB(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewDB(dbPath, nil)
	require.NoError(t, err)
	defer second.Close()

	var count int
	err = second.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN ('idx_reservations_slot', 'idx_reservations_member_day')`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewDB_Pragmas(t *testing.T) {
	db := newTestDB(t)

	var journal string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&journal))
	assert.Equal(t, "wal", journal)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	seedMember(t, db, "m1")
	_, err = db.GetMember(context.Background(), "m1")
	assert.NoError(t, err)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/data/club.db", 0)
	assert.Contains(t, dsn, "/data/club.db?")
	assert.Contains(t, dsn, "_fk=1")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_journal_mode=WAL")

	assert.NotContains(t, buildDSN(":memory:", 0), "_journal_mode")
	assert.Contains(t, buildDSN("file:x.db?cache=shared", 0), "cache=shared&_busy_timeout=")
}

func TestDB_Ping(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestDB_ErrorPaths(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Close())

	ctx := context.Background()
	day := testWindow.First

	_, err := db.ListReservationsByDate(ctx, day)
	assert.Error(t, err)

	_, err = db.GetReservation(ctx, "x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = db.CreateReservation(ctx, &models.Reservation{
		MemberID: "m1", ReservationDate: day, ReservationTime: 16, CourtNumber: 1,
	}, testWindow)
	assert.Error(t, err)

	_, err = db.PurgeReservationsBefore(ctx, day)
	assert.Error(t, err)
}
