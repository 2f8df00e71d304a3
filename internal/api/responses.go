package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"courtbook/internal/auth"
	"courtbook/internal/export"
	"courtbook/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorBody{Error: message, Code: code})
}

// statusFor maps a service or auth error to its HTTP status, machine code
// and client-facing message. Unknown errors never leak their text.
func statusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date", service.ErrInvalidDate.Error()
	case errors.Is(err, service.ErrInvalidSlot):
		return http.StatusBadRequest, "invalid_slot", service.ErrInvalidSlot.Error()
	case errors.Is(err, export.ErrInvalidRange), errors.Is(err, export.ErrRangeTooLarge):
		return http.StatusBadRequest, "invalid_range", err.Error()
	case errors.Is(err, service.ErrSlotTaken):
		return http.StatusConflict, "slot_taken", service.ErrSlotTaken.Error()
	case errors.Is(err, service.ErrAlreadyBooked):
		return http.StatusConflict, "already_booked", service.ErrAlreadyBooked.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", service.ErrNotFound.Error()
	case errors.Is(err, service.ErrProfileIncomplete):
		return http.StatusForbidden, "profile_incomplete", service.ErrProfileIncomplete.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", service.ErrForbidden.Error()
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", auth.ErrTokenExpired.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", auth.ErrUnauthenticated.Error()
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFor(err)
	logger := s.requestLogger(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", code).Msg("request rejected")
	}
	writeError(w, status, code, msg)
}
