package web

import (
	"net/http"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
	"github.com/guilherme-santos/calendarhub/internal/share"
)

type shareRequest struct {
	Email               string                       `json:"email"`
	Name                string                       `json:"name"`
	NotificationChannel internal.NotificationChannel `json:"notification_channel"`
}

func (s *Server) shareEvent(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	link, err := s.Share.GenerateShareLink(r.Context(), auth.UserID(r.Context()), r.PathValue("id"),
		req.Email, req.Name, req.NotificationChannel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (s *Server) listAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := s.Share.Attendees(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

// publicEvent is what an invitee sees of the event; owner and sync details
// stay private.
type publicEvent struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	StartsAt    time.Time       `json:"start_time"`
	EndsAt      time.Time       `json:"end_time"`
	Timezone    string          `json:"timezone,omitempty"`
	AllDay      bool            `json:"is_all_day"`
	Status      internal.Status `json:"status"`
}

func newPublicEvent(e *internal.Event) publicEvent {
	return publicEvent{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Timezone:    e.Timezone,
		AllDay:      e.AllDay,
		Status:      e.Status,
	}
}

type invitationResponse struct {
	Event    publicEvent        `json:"event"`
	Attendee *internal.Attendee `json:"attendee"`
	Message  share.Message      `json:"message"`
}

func (s *Server) getRSVP(w http.ResponseWriter, r *http.Request) {
	inv, err := s.Share.ResolveByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invitationResponse{
		Event:    newPublicEvent(inv.Event),
		Attendee: inv.Attendee,
		Message:  share.FormatForSharing(inv.Event),
	})
}

type rsvpRequest struct {
	Status  internal.RSVPStatus `json:"status"`
	Comment string              `json:"comment"`
}

func (s *Server) submitRSVP(w http.ResponseWriter, r *http.Request) {
	var req rsvpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token := r.PathValue("token")
	if err := s.Share.SubmitRSVP(r.Context(), token, req.Status, req.Comment); err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.Share.ResolveByToken(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv.Attendee)
}
