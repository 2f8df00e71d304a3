package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"

	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/models"
	"courtbook/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newSQLiteService(t *testing.T, members ...string) (*BookingService, *database.DB, *events.EventBus) {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "courtbook.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, id := range members {
		require.NoError(t, db.CreateMember(context.Background(), &models.Member{
			ID:        id,
			FirstName: "First " + id,
			LastName:  "Last " + id,
			Email:     id + "@club.example",
			Phone:     "+33600" + id,
		}))
	}

	bus := events.NewEventBus()
	svc := NewBookingService(db, schedule.DefaultGrid(), schedule.FixedCalendar(monday), bus, &logger)
	return svc, db, bus
}

func TestBookingFlow_SQLite(t *testing.T) {
	ctx := context.Background()
	svc, _, bus := newSQLiteService(t, "M1", "M2")
	first := svc.Dates().First

	var created, cancelled atomic.Int32
	bus.Subscribe(events.EventReservationCreated, func(e *events.Event) error {
		created.Add(1)
		return nil
	})
	bus.Subscribe(events.EventReservationCancelled, func(e *events.Event) error {
		cancelled.Add(1)
		return nil
	})

	before, err := svc.GetAvailability(ctx, first, member("M1"))
	require.NoError(t, err)
	assert.Equal(t, 20, before.FreeCount())

	r, err := svc.Book(ctx, BookRequest{Date: first, Hour: 18, Court: 2}, member("M1"))
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "First M1", r.MemberFirstName)

	list, err := svc.ListReservations(ctx, first, member("M2"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 18, list[0].ReservationTime)
	assert.Equal(t, 2, list[0].CourtNumber)
	assert.Equal(t, "M1", list[0].MemberID)

	mine, err := svc.GetAvailability(ctx, first, member("M1"))
	require.NoError(t, err)
	assert.Equal(t, 19, mine.FreeCount())
	assert.True(t, mine.HasReservation)
	require.NotNil(t, mine.Own)
	assert.Equal(t, r.ID, mine.Own.ID)

	theirs, err := svc.GetAvailability(ctx, first, member("M2"))
	require.NoError(t, err)
	assert.False(t, theirs.HasReservation)
	assert.True(t, theirs.Slot(18, 2).Occupied)
	assert.False(t, theirs.Slot(18, 2).Mine)

	_, err = svc.Book(ctx, BookRequest{Date: first, Hour: 18, Court: 2}, member("M2"))
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = svc.Book(ctx, BookRequest{Date: first, Hour: 19, Court: 1}, member("M1"))
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	assert.ErrorIs(t, svc.CancelOwn(ctx, r.ID, member("M2")), ErrForbidden)
	require.NoError(t, svc.CancelOwn(ctx, r.ID, member("M1")))
	assert.ErrorIs(t, svc.CancelOwn(ctx, r.ID, member("M1")), ErrNotFound)

	after, err := svc.GetAvailability(ctx, first, member("M1"))
	require.NoError(t, err)
	assert.Equal(t, 20, after.FreeCount())
	assert.False(t, after.HasReservation)

	rebooked, err := svc.Book(ctx, BookRequest{Date: first, Hour: 18, Court: 2}, member("M2"))
	require.NoError(t, err)
	assert.Equal(t, "M2", rebooked.MemberID)

	assert.EqualValues(t, 2, created.Load())
	assert.EqualValues(t, 1, cancelled.Load())
}

func TestBookingFlow_BothOpenDays(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteService(t, "M1")
	d := svc.Dates()

	_, err := svc.Book(ctx, BookRequest{Date: d.First, Hour: 16, Court: 1}, member("M1"))
	require.NoError(t, err)
	_, err = svc.Book(ctx, BookRequest{Date: d.Second, Hour: 16, Court: 1}, member("M1"))
	require.NoError(t, err, "one reservation per day, not per window")
}

func TestBookingFlow_UnregisteredMember(t *testing.T) {
	svc, _, _ := newSQLiteService(t)
	first := svc.Dates().First

	_, err := svc.Book(context.Background(), BookRequest{Date: first, Hour: 16, Court: 1}, member("ghost"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingFlow_ConcurrentSameSlot(t *testing.T) {
	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("M%d", i+1)
	}
	svc, db, _ := newSQLiteService(t, ids...)
	first := svc.Dates().First

	var ok, taken atomic.Int32
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := svc.Book(context.Background(), BookRequest{Date: first, Hour: 20, Court: 4}, member(id))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrSlotTaken):
				taken.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, taken.Load())

	list, err := db.ListReservationsByDate(context.Background(), first)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBookingFlow_ConcurrentSameMember(t *testing.T) {
	svc, db, _ := newSQLiteService(t, "M1")
	first := svc.Dates().First

	var ok, already atomic.Int32
	var g errgroup.Group
	for court := 1; court <= 4; court++ {
		g.Go(func() error {
			_, err := svc.Book(context.Background(), BookRequest{Date: first, Hour: 17, Court: court}, member("M1"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyBooked):
				already.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 3, already.Load())

	list, err := db.ListReservationsByDate(context.Background(), first)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
