package service

import (
	"courtbook/internal/models"
	"courtbook/internal/schedule"
)

// BuildAvailability projects the day's reservations onto the grid for one
// caller. Reservations outside the grid are ignored.
func BuildAvailability(date schedule.Date, grid *schedule.Grid, reservations []*models.Reservation, callerID string) *models.AvailabilityView {
	occupied := make(map[[2]int]*models.Reservation, len(reservations))
	view := &models.AvailabilityView{
		Date:        date,
		TotalCourts: grid.CourtCount(),
	}

	for _, r := range reservations {
		if r.ReservationDate != date || !grid.Contains(r.ReservationTime, r.CourtNumber) {
			continue
		}
		occupied[[2]int{r.ReservationTime, r.CourtNumber}] = r
		if callerID != "" && r.MemberID == callerID {
			view.HasReservation = true
			view.Own = &models.OwnReservation{ID: r.ID, Hour: r.ReservationTime, Court: r.CourtNumber}
		}
	}

	hours := grid.Hours()
	courts := grid.Courts()
	view.Hours = make([]models.HourAvailability, 0, len(hours))
	for _, h := range hours {
		ha := models.HourAvailability{
			Hour:   h,
			Total:  len(courts),
			Courts: make([]models.CourtStatus, 0, len(courts)),
		}
		for _, c := range courts {
			status := models.CourtStatus{Court: c}
			if r, ok := occupied[[2]int{h, c}]; ok {
				status.Occupied = true
				status.ReservationID = r.ID
				status.MemberID = r.MemberID
				status.Mine = callerID != "" && r.MemberID == callerID
				ha.Occupied++
			}
			ha.Courts = append(ha.Courts, status)
		}
		ha.Free = ha.Total - ha.Occupied
		view.Hours = append(view.Hours, ha)
	}

	return view
}
