package service

import (
	"errors"
	"fmt"

	"courtbook/internal/auth"
	"courtbook/internal/database"
)

var (
	ErrInvalidDate       = errors.New("invalid reservation date")
	ErrInvalidSlot       = errors.New("invalid slot")
	ErrSlotTaken         = errors.New("slot already taken")
	ErrAlreadyBooked     = errors.New("member already holds a reservation on this date")
	ErrNotFound          = errors.New("reservation not found")
	ErrForbidden         = errors.New("forbidden")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrUnavailable       = errors.New("service temporarily unavailable")

	// ErrUnauthenticated is shared with the auth layer so either side can
	// produce it.
	ErrUnauthenticated = auth.ErrUnauthenticated
)

// mapStoreError translates store failures into API-level outcomes.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrSlotTaken):
		return ErrSlotTaken
	case errors.Is(err, database.ErrMemberAlreadyBooked):
		return ErrAlreadyBooked
	case errors.Is(err, database.ErrInvalidSlot):
		return ErrInvalidSlot
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, database.ErrMemberNotFound):
		return fmt.Errorf("%w: member is not registered", ErrForbidden)
	case errors.Is(err, database.ErrTransient):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
