package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"courtbook/internal/auth"
	"courtbook/internal/export"
	"courtbook/internal/models"
	"courtbook/internal/schedule"
	"courtbook/internal/service"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reservationRequest is the booking body the front end posts. The id field
// is accepted and ignored; ids are assigned by the server.
type reservationRequest struct {
	ID              string `json:"id"`
	MemberID        string `json:"member_id"`
	CourtNumber     *int   `json:"court_number" validate:"required"`
	ReservationDate string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	ReservationTime *int   `json:"reservation_time" validate:"required"`
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.requestLogger(r).Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleDates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bookings.Dates())
}

func (s *HTTPServer) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	writeJSON(w, http.StatusOK, claims)
}

func (s *HTTPServer) handleListReservations(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	list, err := s.bookings.ListReservations(r.Context(), date, claims)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	view, err := s.bookings.GetAvailability(r.Context(), date, claims)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var body reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid request: %v", err))
		return
	}

	date, err := schedule.ParseDate(body.ReservationDate)
	if err != nil {
		s.writeServiceError(w, r, service.ErrInvalidDate)
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	res, err := s.bookings.Book(r.Context(), service.BookRequest{
		Date:     date,
		Hour:     *body.ReservationTime,
		Court:    *body.CourtNumber,
		MemberID: strings.TrimSpace(body.MemberID),
	}, claims)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())

	res, err := s.bookings.GetReservation(r.Context(), chi.URLParam(r, "id"), claims)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())

	if err := s.bookings.CancelOwn(r.Context(), chi.URLParam(r, "id"), claims); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	if claims == nil || !claims.IsAdmin {
		s.writeServiceError(w, r, service.ErrForbidden)
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "not_found", "export is not configured")
		return
	}

	from, err := schedule.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		s.writeServiceError(w, r, service.ErrInvalidDate)
		return
	}
	to, err := schedule.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		s.writeServiceError(w, r, service.ErrInvalidDate)
		return
	}

	// Render fully before writing so failures still get a JSON error.
	var buf bytes.Buffer
	if err := s.exporter.WriteTo(r.Context(), &buf, from, to); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func parseDateParam(r *http.Request, name string) (schedule.Date, error) {
	d, err := schedule.ParseDate(chi.URLParam(r, name))
	if err != nil {
		return schedule.Date{}, service.ErrInvalidDate
	}
	return d, nil
}
