package models

import (
	"time"

	"courtbook/internal/schedule"
)

// Reservation occupies one (date, hour, court) slot for one member.
// JSON field names follow the web client's contract.
type Reservation struct {
	ID              string        `json:"id"`
	MemberID        string        `json:"member_id"`
	CourtNumber     int           `json:"court_number"`
	ReservationTime int           `json:"reservation_time"`
	ReservationDate schedule.Date `json:"reservation_date"`
	MemberFirstName string        `json:"member_first_name"`
	MemberLastName  string        `json:"member_last_name"`
	CreatedAt       time.Time     `json:"created_at"`
}

// SlotKey identifies the slot a reservation occupies.
func (r *Reservation) SlotKey() SlotKey {
	return SlotKey{Date: r.ReservationDate, Hour: r.ReservationTime, Court: r.CourtNumber}
}

// SlotKey is an addressable coordinate of the booking grid.
type SlotKey struct {
	Date  schedule.Date
	Hour  int
	Court int
}
