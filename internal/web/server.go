package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
	"github.com/guilherme-santos/calendarhub/internal/share"
	"github.com/guilherme-santos/calendarhub/internal/syncer"
)

type (
	Tokens interface {
		Stored(_ context.Context, userID string) (*internal.ConnectedAccount, error)
		Fresh(_ context.Context, userID string) (*internal.ConnectedAccount, error)
	}

	Calendars interface {
		Calendars(_ context.Context, userID string) ([]*internal.Calendar, error)
	}

	EventStorage interface {
		CreateEvent(context.Context, *internal.Event) error
		Event(_ context.Context, userID, id string) (*internal.Event, error)
		Events(_ context.Context, userID string, from, to time.Time) ([]*internal.Event, error)
		UpdateEvent(_ context.Context, _ *internal.Event, lastSeen time.Time) error
	}

	Syncer interface {
		Sync(_ context.Context, userID string) *syncer.Result
		ExportEvent(_ context.Context, userID, eventID string) (*internal.Event, error)
		DeleteEverywhere(_ context.Context, userID, eventID string) error
	}

	Sharer interface {
		GenerateShareLink(_ context.Context, userID, eventID, email, name string, _ internal.NotificationChannel) (*share.Link, error)
		ResolveByToken(_ context.Context, token string) (*share.Invitation, error)
		SubmitRSVP(_ context.Context, token string, _ internal.RSVPStatus, comment string) error
		Attendees(_ context.Context, userID, eventID string) ([]*internal.Attendee, error)
	}

	Connector interface {
		Start(_ http.ResponseWriter, _ *http.Request, userID string) (string, error)
		Callback(http.ResponseWriter, *http.Request) (*internal.ConnectedAccount, error)
	}
)

// Dependencies are the services the HTTP API is a thin layer over.
type Dependencies struct {
	Tokens    Tokens
	Calendars Calendars
	Events    EventStorage
	Syncer    Syncer
	Share     Sharer
	Google    Connector
}

type Server struct {
	logger  *slog.Logger
	issuer  *auth.Issuer
	baseURL string
	Dependencies
}

func New(logger *slog.Logger, issuer *auth.Issuer, baseURL string, deps Dependencies) *Server {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Server{
		logger:       logger,
		issuer:       issuer,
		baseURL:      baseURL,
		Dependencies: deps,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := auth.Middleware(s.issuer)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	handle("GET /functions/get-google-token", s.getGoogleToken)
	handle("GET /functions/refresh-google-token", s.refreshGoogleToken)
	handle("POST /functions/refresh-google-token", s.refreshGoogleToken)

	handle("GET /api/calendars", s.listCalendars)
	handle("GET /api/events", s.listEvents)
	handle("POST /api/events", s.createEvent)
	handle("GET /api/events/{id}", s.getEvent)
	handle("PATCH /api/events/{id}", s.updateEvent)
	handle("DELETE /api/events/{id}", s.deleteEvent)
	handle("POST /api/events/{id}/export", s.exportEvent)
	handle("POST /api/events/{id}/share", s.shareEvent)
	handle("GET /api/events/{id}/attendees", s.listAttendees)
	handle("POST /api/sync", s.sync)

	handle("POST /oauth/google/start", s.startGoogle)
	mux.HandleFunc("GET /oauth/google/callback", s.googleCallback)

	mux.HandleFunc("GET /rsvp/{token}", s.getRSVP)
	mux.HandleFunc("POST /rsvp/{token}", s.submitRSVP)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s.logRequests(mux)
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening.", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server.")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("HTTP request.",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
