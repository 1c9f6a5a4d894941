package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meetflow/meetflow/internal/auth"
	"github.com/meetflow/meetflow/internal/calendar"
	redisclient "github.com/meetflow/meetflow/internal/redis"
	"github.com/meetflow/meetflow/internal/scheduling"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller should
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", verrs[0].Error())
		} else {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		}
		return false
	}
	return true
}

// handleServiceError maps domain errors onto HTTP statuses. Not-found never
// distinguishes "doesn't exist" from "not yours", and slot conflicts never
// reveal which layer rejected them.
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *scheduling.ValidationError

	switch {
	case errors.Is(err, scheduling.ErrUserNotFound),
		errors.Is(err, scheduling.ErrEventTypeNotFound),
		errors.Is(err, scheduling.ErrRuleNotFound),
		errors.Is(err, scheduling.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Message)
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", "selected time slot is no longer available, please pick another")
	case errors.Is(err, scheduling.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, calendar.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "calendar_not_configured", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// Public endpoints: anyone with the booking-page URL can read slots and book.

func getSlotsHandler(resolver *scheduling.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		slug := chi.URLParam(r, "slug")

		dateStr := r.URL.Query().Get("date")
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		resp, err := resolver.DayAvailability(r.Context(), username, slug, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createPublicBookingHandler(svc *scheduling.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		slug := chi.URLParam(r, "slug")

		var req CreateBookingRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		guest := scheduling.GuestInfo{
			Name:  req.GuestName,
			Email: req.GuestEmail,
			Phone: req.GuestPhone,
			Notes: req.Notes,
		}

		conf, err := svc.CreateBooking(r.Context(), username, slug, guest, req.StartTime)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, conf)
	}
}
