package models

import "courtbook/internal/schedule"

// AvailabilityView is the caller-scoped projection of one reservation day.
// It is computed on every read and never stored.
type AvailabilityView struct {
	Date           schedule.Date      `json:"date"`
	TotalCourts    int                `json:"total_courts"`
	Hours          []HourAvailability `json:"hours"`
	HasReservation bool               `json:"has_reservation"`
	Own            *OwnReservation    `json:"own_reservation,omitempty"`
}

type HourAvailability struct {
	Hour     int           `json:"hour"`
	Total    int           `json:"total"`
	Occupied int           `json:"occupied"`
	Free     int           `json:"free"`
	Courts   []CourtStatus `json:"courts"`
}

type CourtStatus struct {
	Court         int    `json:"court"`
	Occupied      bool   `json:"occupied"`
	ReservationID string `json:"reservation_id,omitempty"`
	MemberID      string `json:"member_id,omitempty"`
	Mine          bool   `json:"mine"`
}

type OwnReservation struct {
	ID    string `json:"id"`
	Hour  int    `json:"hour"`
	Court int    `json:"court"`
}

// Slot returns the status of (hour, court), or nil when outside the view.
func (v *AvailabilityView) Slot(hour, court int) *CourtStatus {
	for i := range v.Hours {
		if v.Hours[i].Hour != hour {
			continue
		}
		for j := range v.Hours[i].Courts {
			if v.Hours[i].Courts[j].Court == court {
				return &v.Hours[i].Courts[j]
			}
		}
	}
	return nil
}

// FreeCount sums free slots over all hours.
func (v *AvailabilityView) FreeCount() int {
	total := 0
	for _, h := range v.Hours {
		total += h.Free
	}
	return total
}

// DatesView tells the front end which days are open and how to move
// between them.
type DatesView struct {
	Today      schedule.Date                  `json:"today"`
	First      schedule.Date                  `json:"first"`
	Second     schedule.Date                  `json:"second"`
	Default    schedule.Date                  `json:"default"`
	Navigation map[string]schedule.Navigation `json:"navigation"`
}
