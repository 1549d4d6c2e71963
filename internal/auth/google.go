package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/calendarhub/internal"
)

const (
	sessionName = "calendarhub_oauth"
	stateKey    = "state"
	userKey     = "user_id"
)

var (
	ErrInvalidState = errors.New("oauth link is not valid")

	Scopes = []string{calendar.CalendarScope, calendar.CalendarEventsScope}
)

type AccountStorage interface {
	UpsertAccount(context.Context, *internal.ConnectedAccount) error
}

// NewOAuthConfig returns the Google OAuth client configuration asking for
// calendar access.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// NewCookieStore returns the store keeping the OAuth state between the start
// of the handshake and its callback.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// GoogleConnector runs the OAuth handshake that links a Google calendar to
// a user and stores the resulting grant.
type GoogleConnector struct {
	logger   *slog.Logger
	oauthCfg *oauth2.Config
	store    sessions.Store
	storage  AccountStorage
}

func NewGoogleConnector(logger *slog.Logger, oauthCfg *oauth2.Config, store sessions.Store, storage AccountStorage) *GoogleConnector {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &GoogleConnector{
		logger:   logger,
		oauthCfg: oauthCfg,
		store:    store,
		storage:  storage,
	}
}

// Start remembers a fresh state for userID in the session cookie and returns
// the consent URL to send the user to.
func (c *GoogleConnector) Start(w http.ResponseWriter, r *http.Request, userID string) (string, error) {
	if userID == "" {
		return "", internal.ErrNotAuthenticated
	}

	// An undecodable cookie still yields a usable new session.
	session, _ := c.store.Get(r, sessionName)
	state := uuid.NewString()
	session.Values[stateKey] = state
	session.Values[userKey] = userID
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("saving oauth session: %w", err)
	}
	return c.authCodeURL(state), nil
}

// Callback completes the handshake started by Start.
func (c *GoogleConnector) Callback(w http.ResponseWriter, r *http.Request) (*internal.ConnectedAccount, error) {
	session, err := c.store.Get(r, sessionName)
	if err != nil {
		return nil, ErrInvalidState
	}
	state, _ := session.Values[stateKey].(string)
	userID, _ := session.Values[userKey].(string)

	// The state is single use.
	delete(session.Values, stateKey)
	delete(session.Values, userKey)
	if session.Options != nil {
		session.Options.MaxAge = -1
	}
	_ = session.Save(r, w)

	query := r.URL.Query()
	if state == "" || userID == "" || query.Get("state") != state {
		return nil, ErrInvalidState
	}
	if reason := query.Get("error"); reason != "" {
		return nil, fmt.Errorf("google denied access: %s", reason)
	}
	return c.connect(r.Context(), userID, query.Get("code"))
}

// Login runs the handshake from a terminal: it prints the consent URL to out
// and serves the redirect URL itself until Google calls back.
func (c *GoogleConnector) Login(ctx context.Context, userID string, out io.Writer) (*internal.ConnectedAccount, error) {
	redirect, err := url.Parse(c.oauthCfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect url: %w", err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString()
	fmt.Fprintf(out, "\nGo to the following link in your browser\n%s\n", c.authCodeURL(state))

	mux := http.NewServeMux()
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		acc     *internal.ConnectedAccount
		authErr error
	)
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			go server.Shutdown(context.WithoutCancel(ctx))
		}()

		query := req.URL.Query()
		if query.Get("state") != state {
			authErr = ErrInvalidState
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		acc, authErr = c.connect(req.Context(), userID, query.Get("code"))
		if authErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Unable to retrieve token:", authErr)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "All good, you can close this window!")
	})

	serverCh := make(chan struct{})
	var svrErr error
	go func() {
		svrErr = server.Serve(ln)
		close(serverCh)
	}()

	select {
	case <-serverCh:
	case <-ctx.Done():
		_ = server.Close()
		<-serverCh
		return nil, ctx.Err()
	}

	if svrErr != nil && !errors.Is(svrErr, http.ErrServerClosed) {
		return nil, svrErr
	}
	if authErr != nil {
		return nil, authErr
	}
	return acc, nil
}

func (c *GoogleConnector) authCodeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *GoogleConnector) connect(ctx context.Context, userID, code string) (*internal.ConnectedAccount, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	tok, err := c.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	acc := &internal.ConnectedAccount{
		UserID:       userID,
		Provider:     internal.GoogleProvider,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		IsPrimary:    true,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		acc.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		expiresAt := tok.Expiry.UTC()
		acc.ExpiresAt = &expiresAt
	}

	if err := c.storage.UpsertAccount(ctx, acc); err != nil {
		return nil, err
	}
	c.logger.Info("Google calendar connected.", "user_id", userID, "has_refresh", acc.RefreshToken != "")
	return acc, nil
}
