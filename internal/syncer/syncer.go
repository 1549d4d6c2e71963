package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
)

const syncInProgress = "Sync already in progress"

type (
	Mux   = internal.Mux
	Event = internal.Event
)

type Storage interface {
	Event(_ context.Context, userID, id string) (*Event, error)
	CreateEvent(context.Context, *Event) error
	DeleteEvent(_ context.Context, userID, id string) error
	EventByGoogleID(_ context.Context, userID, googleEventID string) (*Event, error)
	LinkedEvents(_ context.Context, userID string) ([]*Event, error)
	UnsyncedEvents(_ context.Context, userID string) ([]*Event, error)
	SetEventStatus(_ context.Context, id string, _ internal.Status) error
	SetGoogleEventID(_ context.Context, id, googleEventID string) error
}

// Result summarizes one sync run. Errors is never nil so it always encodes
// as a JSON list.
type Result struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors"`
}

func newResult() *Result {
	return &Result{Success: true, Errors: []string{}}
}

func (r *Result) errorf(format string, a ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

// Syncer reconciles the local event store of a user with their primary
// Google calendar. At most one run per user is in flight at a time.
type Syncer struct {
	logger  *slog.Logger
	mux     Mux
	storage Storage
	now     func() time.Time

	mu      sync.Mutex
	running map[string]struct{}

	// CalendarID is the remote calendar synced against.
	CalendarID string
	// Window bounds the import to [now, now+Window). Zero leaves it open.
	Window time.Duration
}

func New(logger *slog.Logger, providers Mux, storage Storage) *Syncer {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Syncer{
		logger:     logger,
		mux:        providers,
		storage:    storage,
		now:        time.Now,
		running:    make(map[string]struct{}),
		CalendarID: internal.PrimaryCalendar,
	}
}

// Sync imports remote changes and then exports local-only events. A run
// already in flight for the same user makes this return immediately with a
// successful, empty result.
func (s *Syncer) Sync(ctx context.Context, userID string) *Result {
	res := newResult()
	if !s.lock(userID) {
		s.logger.Info("Sync already in progress, skipping.", "user_id", userID)
		res.Errors = append(res.Errors, syncInProgress)
		return res
	}
	defer s.unlock(userID)

	s.logger.Info("Starting sync.", "user_id", userID)

	provider, err := s.provider(userID)
	if err != nil {
		res.Success = false
		res.errorf("Import failed: %v", err)
		return res
	}

	from := s.now()
	var to time.Time
	if s.Window > 0 {
		to = from.Add(s.Window)
	}
	if err := s.importEvents(ctx, provider, userID, from, to, res); err != nil {
		res.Success = false
		res.errorf("Import failed: %v", err)
		if internal.IsAuthError(err) || ctx.Err() != nil {
			s.logger.Error("Sync aborted.", "user_id", userID, "error", err)
			return res
		}
	}
	if err := s.exportEvents(ctx, provider, userID, res); err != nil {
		res.errorf("Export phase failed: %v", err)
		if internal.IsAuthError(err) || ctx.Err() != nil {
			res.Success = false
		}
	}

	s.logger.Info("Sync complete.", "user_id", userID,
		"imported", res.Imported, "updated", res.Updated, "deleted", res.Deleted, "errors", len(res.Errors))
	return res
}

// Import runs only the import phase over [from, to). A zero to leaves the
// window open.
func (s *Syncer) Import(ctx context.Context, userID string, from, to time.Time) *Result {
	res := newResult()
	if !s.lock(userID) {
		res.Errors = append(res.Errors, syncInProgress)
		return res
	}
	defer s.unlock(userID)

	provider, err := s.provider(userID)
	if err == nil {
		err = s.importEvents(ctx, provider, userID, from, to, res)
	}
	if err != nil {
		res.Success = false
		res.errorf("Import failed: %v", err)
	}
	return res
}

func (s *Syncer) importEvents(ctx context.Context, provider internal.Provider, userID string, from, to time.Time, res *Result) error {
	remote, err := provider.Events(ctx, userID, s.CalendarID, from, to)
	if err != nil {
		return err
	}
	s.logger.Debug("Fetched remote events.", "user_id", userID, "count", len(remote))

	seen := make(map[string]struct{}, len(remote))
	for _, event := range remote {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[event.GoogleEventID] = struct{}{}

		existing, err := s.storage.EventByGoogleID(ctx, userID, event.GoogleEventID)
		if err != nil {
			res.errorf("Error processing event %s: %v", event.GoogleEventID, err)
			continue
		}
		if existing != nil {
			// Already imported. Remote edits to known events are not pulled.
			continue
		}
		if err := event.Validate(); err != nil {
			res.errorf("Error processing event %s: %v", event.GoogleEventID, err)
			continue
		}

		logEvent(s.logger, "Importing event.", event)
		if err := s.storage.CreateEvent(ctx, event); err != nil {
			res.errorf("Failed to insert event %s: %v", event.GoogleEventID, err)
			continue
		}
		res.Imported++
	}

	// A full page may have left events out; only the part of the window
	// the page covers can be diffed.
	if len(remote) >= internal.EventsPageSize {
		to = coveredUntil(remote, to)
	}

	linked, err := s.storage.LinkedEvents(ctx, userID)
	if err != nil {
		return err
	}
	for _, event := range linked {
		if !inWindow(event, from, to) {
			continue
		}
		if _, ok := seen[event.GoogleEventID]; ok {
			continue
		}

		logEvent(s.logger, "Event removed from google, cancelling.", event)
		if err := s.storage.SetEventStatus(ctx, event.ID, internal.Cancelled); err != nil {
			res.errorf("Failed to cancel event %s: %v", event.ID, err)
			continue
		}
		res.Deleted++
	}
	return nil
}

func (s *Syncer) exportEvents(ctx context.Context, provider internal.Provider, userID string, res *Result) error {
	events, err := s.storage.UnsyncedEvents(ctx, userID)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		s.logger.Info("Exporting local events.", "user_id", userID, "count", len(events))
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.export(ctx, provider, event); err != nil {
			res.errorf("Failed to export event %s: %v", event.ID, err)
			if internal.IsAuthError(err) {
				return err
			}
		}
	}
	return nil
}

// ExportEvent pushes one local event to Google, creating it when it is not
// linked yet and patching it otherwise.
func (s *Syncer) ExportEvent(ctx context.Context, userID, eventID string) (*Event, error) {
	event, err := s.storage.Event(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(userID)
	if err != nil {
		return nil, err
	}
	if err := s.export(ctx, provider, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Syncer) export(ctx context.Context, provider internal.Provider, event *Event) error {
	if event.GoogleEventID != "" {
		logEvent(s.logger, "Updating google event.", event)
		_, err := provider.UpdateEvent(ctx, event.UserID, s.CalendarID, event)
		return err
	}

	logEvent(s.logger, "Creating google event.", event)
	created, err := provider.CreateEvent(ctx, event.UserID, s.CalendarID, event)
	if err != nil {
		return err
	}

	err = s.storage.SetGoogleEventID(ctx, event.ID, created.GoogleEventID)
	if err != nil {
		s.logger.Error("Unable to link event to google.", "event_id", event.ID, "google_event_id", created.GoogleEventID, "error", err)

		// Remove it from google as well, otherwise the next sync would
		// create a duplicate.
		if derr := provider.DeleteEvent(ctx, event.UserID, s.CalendarID, created.GoogleEventID); derr != nil {
			s.logger.Error("Unable to remove unlinked google event.", "event_id", event.ID, "google_event_id", created.GoogleEventID, "error", derr)
		}
		return err
	}
	event.GoogleEventID = created.GoogleEventID
	return nil
}

// DeleteEverywhere removes the event from Google, when linked, and then from
// the local store. A remote failure is logged and does not stop the local
// delete.
func (s *Syncer) DeleteEverywhere(ctx context.Context, userID, eventID string) error {
	event, err := s.storage.Event(ctx, userID, eventID)
	if err != nil {
		return err
	}

	if event.GoogleEventID != "" {
		provider, err := s.provider(userID)
		if err == nil {
			err = provider.DeleteEvent(ctx, userID, s.CalendarID, event.GoogleEventID)
		}
		if err != nil {
			s.logger.Warn("Failed to delete from google calendar.", "event_id", event.ID, "google_event_id", event.GoogleEventID, "error", err)
		}
	}

	logEvent(s.logger, "Deleting event.", event)
	return s.storage.DeleteEvent(ctx, userID, eventID)
}

func (s *Syncer) provider(userID string) (internal.Provider, error) {
	if userID == "" {
		return nil, internal.ErrNotAuthenticated
	}
	return s.mux.Get(internal.GoogleProvider)
}
