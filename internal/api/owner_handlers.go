package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/scheduling"
)

// Authenticated endpoints operating on the caller's own data. Every handler
// resolves the user id from the verified token, never from the request body.

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "user not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Availability rules

func listRulesHandler(svc *scheduling.RuleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		rules, err := svc.ListRules(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]RuleResponse, 0, len(rules))
		for _, rule := range rules {
			out = append(out, ruleResponse(rule))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createRuleHandler(svc *scheduling.RuleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req RuleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		rule, err := svc.CreateRule(r.Context(), userID, scheduling.RuleInput{
			DayOfWeek: req.DayOfWeek,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ruleResponse(*rule))
	}
}

func replaceRulesHandler(svc *scheduling.RuleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req ReplaceRulesRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		inputs := make([]scheduling.RuleInput, 0, len(req.Rules))
		for _, in := range req.Rules {
			inputs = append(inputs, scheduling.RuleInput{
				DayOfWeek: in.DayOfWeek,
				StartTime: in.StartTime,
				EndTime:   in.EndTime,
			})
		}

		rules, err := svc.ReplaceRules(r.Context(), userID, inputs)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]RuleResponse, 0, len(rules))
		for _, rule := range rules {
			out = append(out, ruleResponse(rule))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteRuleHandler(svc *scheduling.RuleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		ruleID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteRule(r.Context(), ruleID, userID); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Event types

func listEventTypesHandler(svc *scheduling.EventTypeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		eventTypes, err := svc.ListEventTypes(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]EventTypeResponse, 0, len(eventTypes))
		for i := range eventTypes {
			out = append(out, eventTypeResponse(&eventTypes[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createEventTypeHandler(svc *scheduling.EventTypeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req CreateEventTypeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		et, err := svc.CreateEventType(r.Context(), userID, scheduling.EventTypeInput{
			Name:             req.Name,
			Slug:             req.Slug,
			DurationMinutes:  req.DurationMinutes,
			Description:      req.Description,
			Location:         req.Location,
			LocationDetails:  req.LocationDetails,
			Color:            req.Color,
			BufferMinutes:    req.BufferMinutes,
			MinNoticeHours:   req.MinNoticeHours,
			MaxDaysInAdvance: req.MaxDaysInAdvance,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, eventTypeResponse(et))
	}
}

func getEventTypeHandler(svc *scheduling.EventTypeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		et, err := svc.GetEventType(r.Context(), id, userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventTypeResponse(et))
	}
}

func updateEventTypeHandler(svc *scheduling.EventTypeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req UpdateEventTypeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		et, err := svc.UpdateEventType(r.Context(), id, userID, scheduling.EventTypeUpdate{
			Name:             req.Name,
			Slug:             req.Slug,
			DurationMinutes:  req.DurationMinutes,
			Description:      req.Description,
			Location:         req.Location,
			LocationDetails:  req.LocationDetails,
			Color:            req.Color,
			IsActive:         req.IsActive,
			BufferMinutes:    req.BufferMinutes,
			MinNoticeHours:   req.MinNoticeHours,
			MaxDaysInAdvance: req.MaxDaysInAdvance,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, eventTypeResponse(et))
	}
}

func deleteEventTypeHandler(svc *scheduling.EventTypeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteEventType(r.Context(), id, userID); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Bookings

func listBookingsHandler(svc *scheduling.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		filter := r.URL.Query().Get("filter")
		bookings, err := svc.ListBookings(r.Context(), userID, filter)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			out = append(out, bookingResponse(&bookings[i].Booking, bookings[i].EventType))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getBookingHandler(svc *scheduling.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		booking, err := svc.GetBooking(r.Context(), id, userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookingResponse(booking, nil))
	}
}

func cancelBookingHandler(svc *scheduling.BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		// body is optional; a bare DELETE cancels without a reason
		var req CancelBookingRequest
		if r.Body != nil && r.ContentLength != 0 {
			if !decodeAndValidate(w, r, &req) {
				return
			}
		}

		if err := svc.CancelBooking(r.Context(), id, userID, req.Reason); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "booking cancelled"})
	}
}
