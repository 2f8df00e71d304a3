package domain

import (
	"context"

	"courtbook/internal/models"
	"courtbook/internal/schedule"
)

// DateLocker serializes writers that touch the same reservation day.
// The returned unlock func is safe to call more than once.
type DateLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type ReservationStore interface {
	CreateReservation(ctx context.Context, r *models.Reservation, window schedule.Window) error
	CancelReservation(ctx context.Context, id, callerID string, callerIsAdmin bool) (*models.Reservation, error)
	ListReservationsByDate(ctx context.Context, date schedule.Date) ([]*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
}

type ReservationArchive interface {
	ListReservationsBetween(ctx context.Context, from, to schedule.Date) ([]*models.Reservation, error)
	PurgeReservationsBefore(ctx context.Context, date schedule.Date) (int64, error)
}

type MemberDirectory interface {
	GetMember(ctx context.Context, id string) (*models.Member, error)
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)
	CreateMember(ctx context.Context, m *models.Member) error
	DeleteMember(ctx context.Context, id string) error
}

type AuthProvider interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
