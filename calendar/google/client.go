package google

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/guilherme-santos/calendarhub/internal"
)

const (
	maxAttempts = 3

	defaultSleep = 5 * time.Second
)

// Client talks to the Google Calendar API on behalf of a user, using the
// access token resolved by tokens for every call.
type Client struct {
	logger *slog.Logger
	tokens internal.TokenSource
	opts   []option.ClientOption
	sleep  time.Duration
}

// NewClient returns a Client. opts are passed to calendar.NewService after
// the authenticated HTTP client, e.g. option.WithEndpoint.
func NewClient(logger *slog.Logger, tokens internal.TokenSource, opts ...option.ClientOption) *Client {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Client{
		logger: logger,
		tokens: tokens,
		opts:   opts,
		sleep:  defaultSleep,
	}
}

func (c Client) Calendars(ctx context.Context, userID string) ([]*internal.Calendar, error) {
	svc, err := c.calendarSvc(ctx, userID)
	if err != nil {
		return nil, err
	}

	var list *calendar.CalendarList
	err = c.do(ctx, func() (err error) {
		list, err = svc.CalendarList.List().Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, remoteError(err)
	}

	res := make([]*internal.Calendar, len(list.Items))
	for i, item := range list.Items {
		res[i] = newCalendar(item)
	}
	return res, nil
}

// Events returns a single page of up to 250 events starting in [from, to),
// expanded into single instances. A zero to leaves the window open.
func (c Client) Events(ctx context.Context, userID, calendarID string, from, to time.Time) ([]*internal.Event, error) {
	svc, err := c.calendarSvc(ctx, userID)
	if err != nil {
		return nil, err
	}

	call := svc.Events.
		List(calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(internal.EventsPageSize)
	if !from.IsZero() {
		call = call.TimeMin(from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		call = call.TimeMax(to.UTC().Format(time.RFC3339))
	}

	var events *calendar.Events
	err = c.do(ctx, func() (err error) {
		events, err = call.Do()
		return err
	})
	if err != nil {
		c.logger.Debug("Unable to list google events.", "user_id", userID, "calendar_id", calendarID, "error", err)
		return nil, remoteError(err)
	}

	res := make([]*internal.Event, 0, len(events.Items))
	for _, item := range events.Items {
		res = append(res, newEvent(userID, item))
	}
	c.logger.Debug("Fetched google events.", "user_id", userID, "calendar_id", calendarID, "count", len(res))
	return res, nil
}

func (c Client) CreateEvent(ctx context.Context, userID, calendarID string, req *internal.Event) (*internal.Event, error) {
	svc, err := c.calendarSvc(ctx, userID)
	if err != nil {
		return nil, err
	}

	var gevent *calendar.Event
	err = c.do(ctx, func() (err error) {
		gevent, err = svc.Events.Insert(calendarID, newGoogleEvent(req)).Context(ctx).Do()
		return err
	})
	if err != nil {
		c.logger.Debug("Unable to create google event.", "title", req.Title, "error", err)
		return nil, remoteError(err)
	}
	c.logger.Debug("Created google event.", "title", req.Title, "google_event_id", gevent.Id)
	return newEvent(userID, gevent), nil
}

// UpdateEvent patches the Google event linked to req.
func (c Client) UpdateEvent(ctx context.Context, userID, calendarID string, req *internal.Event) (*internal.Event, error) {
	svc, err := c.calendarSvc(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch := newGoogleEvent(req)
	// A patch only touches the fields it carries, so the default status and
	// cleared texts have to be sent explicitly.
	if req.Status == internal.Confirmed {
		patch.Status = internal.Confirmed.String()
	}
	patch.ForceSendFields = []string{"Description", "Location"}

	var gevent *calendar.Event
	err = c.do(ctx, func() (err error) {
		gevent, err = svc.Events.Patch(calendarID, req.GoogleEventID, patch).Context(ctx).Do()
		return err
	})
	if err != nil {
		c.logger.Debug("Unable to update google event.", "google_event_id", req.GoogleEventID, "error", err)
		return nil, remoteError(err)
	}
	return newEvent(userID, gevent), nil
}

// DeleteEvent removes the event; an event already gone counts as deleted.
func (c Client) DeleteEvent(ctx context.Context, userID, calendarID, id string) error {
	svc, err := c.calendarSvc(ctx, userID)
	if err != nil {
		return err
	}

	err = c.do(ctx, func() error {
		return svc.Events.Delete(calendarID, id).Context(ctx).Do()
	})
	if err != nil && !alreadyDeleted(err) {
		c.logger.Debug("Unable to delete google event.", "google_event_id", id, "error", err)
		return remoteError(err)
	}
	return nil
}

func (c Client) calendarSvc(ctx context.Context, userID string) (*calendar.Service, error) {
	tok, err := c.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	return calendar.NewService(ctx, opts...)
}

func (c Client) do(ctx context.Context, call func() error) error {
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil || !shouldRetry(err) || attempt == maxAttempts {
			return err
		}
		c.logger.Debug("Rate limited by google, retrying.", "attempt", attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.sleep):
		}
	}
}

func remoteError(err error) error {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return err
	}
	msg := gErr.Message
	if msg == "" && len(gErr.Errors) > 0 {
		msg = gErr.Errors[0].Message
	}
	return &internal.RemoteAPIError{Status: gErr.Code, Message: msg}
}

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded") || errIsReason(err, "userRateLimitExceeded")
}

func alreadyDeleted(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusGone {
		return true
	}
	return errIsReason(err, "deleted")
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, err := range gErr.Errors {
		switch err.Reason {
		case reason:
			return true
		}
	}
	return false
}
