package database

import (
	"context"
	"testing"

	"courtbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("CreateGeneratesID", func(t *testing.T) {
		m := &models.Member{FirstName: "Ana", LastName: "Lopez", Phone: "+34600000001"}
		require.NoError(t, db.CreateMember(ctx, m))
		assert.NotEmpty(t, m.ID)

		got, err := db.GetMember(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", got.FirstName)
		assert.False(t, got.IsAdmin)
		assert.False(t, got.IsProfileComplete())
	})

	t.Run("DuplicatePhone", func(t *testing.T) {
		err := db.CreateMember(ctx, &models.Member{Phone: "+34600000001"})
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := db.GetMember(ctx, "nope")
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("GetMembersByIDs", func(t *testing.T) {
		seedMember(t, db, "b1")
		admin := &models.Member{ID: "b2", Phone: "+34600000002", IsAdmin: true}
		require.NoError(t, db.CreateMember(ctx, admin))

		got, err := db.GetMembersByIDs(ctx, []string{"b1", "b2", "unknown"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "First b1", got["b1"].FirstName)
		assert.True(t, got["b2"].IsAdmin)

		empty, err := db.GetMembersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestDeleteMemberCascadesToReservations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedMember(t, db, "m1")
	seedMember(t, db, "m2")

	r1 := newReservation("m1", testWindow.First, 16, 1)
	r2 := newReservation("m2", testWindow.First, 16, 2)
	require.NoError(t, db.CreateReservation(ctx, r1, testWindow))
	require.NoError(t, db.CreateReservation(ctx, r2, testWindow))

	require.NoError(t, db.DeleteMember(ctx, "m1"))

	_, err := db.GetReservation(ctx, r1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetReservation(ctx, r2.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, db.DeleteMember(ctx, "m1"), ErrMemberNotFound)

	// The freed slot can be booked again.
	require.NoError(t, db.CreateReservation(ctx, newReservation("m2", testWindow.Second, 16, 1), testWindow))
}
