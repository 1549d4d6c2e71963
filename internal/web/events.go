package web

import (
	"net/http"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
)

// eventRequest carries the editable fields of an event. Absent fields are
// left untouched on update.
type eventRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Location    *string          `json:"location"`
	StartTime   *time.Time       `json:"start_time"`
	EndTime     *time.Time       `json:"end_time"`
	Timezone    *string          `json:"timezone"`
	AllDay      *bool            `json:"is_all_day"`
	Status      *internal.Status `json:"status"`
	Recurrence  *string          `json:"recurrence"`

	// UpdatedAt is the version the client last saw; a newer stored
	// version makes the update fail with a conflict.
	UpdatedAt *time.Time `json:"updated_at"`
}

func (req eventRequest) apply(e *internal.Event) {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartTime != nil {
		e.StartsAt = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		e.EndsAt = req.EndTime.UTC()
	}
	if req.Timezone != nil {
		e.Timezone = *req.Timezone
	}
	if req.AllDay != nil {
		e.AllDay = *req.AllDay
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.Recurrence != nil {
		e.Recurrence = *req.Recurrence
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.Events.Events(r.Context(), auth.UserID(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	event := &internal.Event{
		UserID: auth.UserID(r.Context()),
		Status: internal.Confirmed,
	}
	req.apply(event)
	if err := event.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Events.CreateEvent(r.Context(), event); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.Events.Event(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	event, err := s.Events.Event(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.apply(event)
	if err := event.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	var lastSeen time.Time
	if req.UpdatedAt != nil {
		lastSeen = *req.UpdatedAt
	}
	if err := s.Events.UpdateEvent(r.Context(), event, lastSeen); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	err := s.Syncer.DeleteEverywhere(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.Syncer.ExportEvent(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	res := s.Syncer.Sync(r.Context(), auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := s.Calendars.Calendars(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cals)
}

// parseTimeParam accepts RFC3339 timestamps and plain dates. A missing
// parameter yields the zero time.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := internal.ParseDate(v)
	if err != nil {
		return time.Time{}, &internal.ValidationError{Field: name, Reason: "must be an RFC3339 time or a YYYY-MM-DD date"}
	}
	return d.Time, nil
}
