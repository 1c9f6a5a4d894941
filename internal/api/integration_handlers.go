package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/calendar"
)

// Google Calendar integration endpoints. The consent URL and status live
// behind auth; the OAuth callback is public because Google redirects the
// browser there, and the user id is recovered from the state parameter.

func googleAuthURLHandler(gw *calendar.GoogleGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		url, err := gw.AuthCodeURL(userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": url})
	}
}

func googleCallbackHandler(gw *calendar.GoogleGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing_code", "authorization code required")
			return
		}

		state := r.URL.Query().Get("state")
		userID, ok := userIDFromState(state)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_state", "state parameter missing or malformed")
			return
		}

		status, err := gw.HandleCallback(r.Context(), userID, code)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func googleStatusHandler(gw *calendar.GoogleGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		status, err := gw.Status(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// googleBusyHandler lets the owner inspect what the gateway reports busy for
// one day, useful when slots disappear unexpectedly.
func googleBusyHandler(gw *calendar.GoogleGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		busy, err := gw.BusyIntervals(r.Context(), userID, date, date.AddDate(0, 0, 1))
		if err != nil {
			if errors.Is(err, calendar.ErrNotConnected) {
				writeError(w, http.StatusNotFound, "not_connected", "no calendar connected")
				return
			}
			handleServiceError(w, err)
			return
		}
		if busy == nil {
			busy = []calendar.BusyInterval{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"date": date.Format("2006-01-02"),
			"busy": busy,
		})
	}
}

func googleDisconnectHandler(gw *calendar.GoogleGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		if err := gw.Disconnect(r.Context(), userID); err != nil {
			if errors.Is(err, calendar.ErrLinkNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "no calendar connected")
				return
			}
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "calendar disconnected"})
	}
}

// userIDFromState extracts the user id from the "uuid:timestamp" state
// value set by AuthCodeURL.
func userIDFromState(state string) (uuid.UUID, bool) {
	idStr, _, found := strings.Cut(state, ":")
	if !found {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
