package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guilherme-santos/calendarhub/internal"
)

const messengerDialogURL = "https://www.facebook.com/dialog/send"

type Storage interface {
	Event(_ context.Context, userID, id string) (*internal.Event, error)
	AttendeeByEmail(_ context.Context, eventID, email string) (*internal.Attendee, error)
	CreateAttendee(context.Context, *internal.Attendee) error
	UpdateAttendeeContact(context.Context, *internal.Attendee) error
	AttendeeByToken(_ context.Context, token string) (*internal.Attendee, *internal.Event, error)
	RespondAttendee(_ context.Context, token string, _ internal.RSVPStatus, comment string, at time.Time) (bool, error)
	Attendees(_ context.Context, eventID string) ([]*internal.Attendee, error)
}

// Link is what an event owner hands out to one attendee.
type Link struct {
	URL          string             `json:"url"`
	MessengerURL string             `json:"messenger_url,omitempty"`
	Attendee     *internal.Attendee `json:"attendee"`
}

// Invitation is the public view behind an RSVP link.
type Invitation struct {
	Event    *internal.Event    `json:"event"`
	Attendee *internal.Attendee `json:"attendee"`
}

type Message struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Service struct {
	logger  *slog.Logger
	storage Storage
	now     func() time.Time
	token   func() string

	baseURL       string
	facebookAppID string
}

// New returns a Service building links under baseURL. Messenger links are
// only produced when facebookAppID is set.
func New(logger *slog.Logger, storage Storage, baseURL, facebookAppID string) *Service {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Service{
		logger:        logger,
		storage:       storage,
		now:           time.Now,
		token:         uuid.NewString,
		baseURL:       strings.TrimRight(baseURL, "/"),
		facebookAppID: facebookAppID,
	}
}

// GenerateShareLink invites email to the event, reusing the attendee and its
// token when the address was invited before. Only the owner may share.
func (s *Service) GenerateShareLink(ctx context.Context, userID, eventID, email, name string, channel internal.NotificationChannel) (*Link, error) {
	if userID == "" {
		return nil, internal.ErrNotAuthenticated
	}
	email, err := internal.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if channel != "" && !channel.Valid() {
		return nil, &internal.ValidationError{Field: "notification_channel", Reason: "unknown channel " + channel.String()}
	}
	name = strings.TrimSpace(name)

	event, err := s.storage.Event(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	attendee, err := s.storage.AttendeeByEmail(ctx, event.ID, email)
	if err != nil {
		return nil, err
	}
	if attendee == nil {
		attendee, err = s.createAttendee(ctx, event.ID, email, name, channel)
	} else {
		err = s.updateAttendee(ctx, attendee, name, channel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate share link: %w", err)
	}

	link := s.RSVPURL(attendee.RSVPToken)
	s.logger.Info("Share link generated.", "event_id", event.ID, "attendee_id", attendee.ID)
	return &Link{
		URL:          link,
		MessengerURL: s.MessengerURL(link),
		Attendee:     attendee,
	}, nil
}

func (s *Service) createAttendee(ctx context.Context, eventID, email, name string, channel internal.NotificationChannel) (*internal.Attendee, error) {
	if name == "" {
		name = email
	}
	attendee := &internal.Attendee{
		EventID:             eventID,
		Email:               email,
		Name:                name,
		NotificationChannel: channel,
		RSVPStatus:          internal.Pending,
		RSVPToken:           s.token(),
	}
	err := s.storage.CreateAttendee(ctx, attendee)
	if err == nil {
		return attendee, nil
	}

	// A concurrent share for the same address may have won the insert.
	existing, getErr := s.storage.AttendeeByEmail(ctx, eventID, email)
	if getErr != nil || existing == nil {
		return nil, err
	}
	return existing, s.updateAttendee(ctx, existing, name, channel)
}

func (s *Service) updateAttendee(ctx context.Context, attendee *internal.Attendee, name string, channel internal.NotificationChannel) error {
	if name == "" && channel == "" {
		return nil
	}
	if name != "" {
		attendee.Name = name
	}
	if channel != "" {
		attendee.NotificationChannel = channel
	}
	return s.storage.UpdateAttendeeContact(ctx, attendee)
}

// ResolveByToken returns the invitation behind an RSVP link.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*Invitation, error) {
	if token == "" {
		return nil, internal.ErrInvalidLink
	}
	attendee, event, err := s.storage.AttendeeByToken(ctx, token)
	if errors.Is(err, internal.ErrNotFound) {
		return nil, internal.ErrInvalidLink
	}
	if err != nil {
		return nil, err
	}
	return &Invitation{Event: event, Attendee: attendee}, nil
}

// SubmitRSVP records the answer for the attendee holding token. Later
// answers replace earlier ones.
func (s *Service) SubmitRSVP(ctx context.Context, token string, status internal.RSVPStatus, comment string) error {
	if !status.Answer() {
		return &internal.ValidationError{Field: "rsvp_status", Reason: "must be accepted, declined or maybe"}
	}
	if token == "" {
		return internal.ErrInvalidLink
	}

	ok, err := s.storage.RespondAttendee(ctx, token, status, strings.TrimSpace(comment), s.now())
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrInvalidLink
	}
	s.logger.Info("RSVP recorded.", "rsvp_status", status)
	return nil
}

// Attendees lists everyone invited to the event, oldest first.
func (s *Service) Attendees(ctx context.Context, userID, eventID string) ([]*internal.Attendee, error) {
	if userID == "" {
		return nil, internal.ErrNotAuthenticated
	}
	if _, err := s.storage.Event(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.storage.Attendees(ctx, eventID)
}

func (s *Service) RSVPURL(token string) string {
	return s.baseURL + "/rsvp/" + url.PathEscape(token)
}

// MessengerURL returns the Facebook send dialog sharing link, or an empty
// string when no Facebook app is configured.
func (s *Service) MessengerURL(link string) string {
	if s.facebookAppID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("app_id", s.facebookAppID)
	q.Set("link", link)
	q.Set("redirect_uri", s.baseURL+"/dashboard")
	return messengerDialogURL + "?" + q.Encode()
}

// FormatForSharing renders the event as a short invitation text, with times
// shown in the event's own timezone.
func FormatForSharing(event *internal.Event) Message {
	loc := time.UTC
	if event.Timezone != "" {
		if l, err := time.LoadLocation(event.Timezone); err == nil {
			loc = l
		}
	}
	start, end := event.StartsAt.In(loc), event.EndsAt.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n", start.Format("Monday, January 2, 2006"))
	if event.AllDay {
		b.WriteString("⏰ All day")
	} else {
		fmt.Fprintf(&b, "⏰ %s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "\n📍 %s", event.Location)
	}
	if event.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", event.Description)
	}
	b.WriteString("\n\nClick to RSVP!")

	return Message{
		Title:       "📌 " + event.Title,
		Description: b.String(),
	}
}
