package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrSlotTaken           = errors.New("slot already taken")
	ErrMemberAlreadyBooked = errors.New("member already holds a reservation on this date")
	ErrInvalidSlot         = errors.New("invalid slot")
	ErrNotFound            = errors.New("reservation not found")
	ErrForbidden           = errors.New("reservation belongs to another member")
	ErrMemberNotFound      = errors.New("member not found")
	ErrDuplicateMember     = errors.New("member already exists")

	// ErrTransient marks failures worth one more attempt: busy or locked
	// database, or a per-date lock that could not be taken in time.
	ErrTransient = errors.New("transient storage failure")
)

// classify maps driver errors onto the package sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	case sqlite3.ErrConstraint:
		msg := sqliteErr.Error()
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return ErrMemberNotFound
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			switch {
			case strings.Contains(msg, "reservations.member_id"):
				return ErrMemberAlreadyBooked
			case strings.Contains(msg, "reservations."):
				return ErrSlotTaken
			case strings.Contains(msg, "members."):
				return ErrDuplicateMember
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
