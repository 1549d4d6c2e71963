// Package token resolves usable Google access tokens for users, refreshing
// the stored grant when it is about to expire.
package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/guilherme-santos/calendarhub/internal"
)

const (
	// DefaultMargin is how long before expiry a token is already treated as
	// expired.
	DefaultMargin = 5 * time.Minute

	defaultExpiresIn = time.Hour
)

type Storage interface {
	Account(_ context.Context, userID, provider string) (*internal.ConnectedAccount, error)
	UpdateAccountToken(_ context.Context, id, accessToken, refreshToken string, expiresAt *time.Time) error
}

type Provider struct {
	logger   *slog.Logger
	storage  Storage
	oauthCfg *oauth2.Config
	group    singleflight.Group
	now      func() time.Time

	Margin time.Duration
}

func New(logger *slog.Logger, storage Storage, oauthCfg *oauth2.Config) *Provider {
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Provider{
		logger:   logger,
		storage:  storage,
		oauthCfg: oauthCfg,
		now:      time.Now,
		Margin:   DefaultMargin,
	}
}

// AccessToken returns a bearer token for the user's Google account.
func (p *Provider) AccessToken(ctx context.Context, userID string) (string, error) {
	acc, err := p.Fresh(ctx, userID)
	if err != nil {
		return "", err
	}
	return acc.AccessToken, nil
}

// Stored returns the user's Google account as persisted, without checking
// expiry.
func (p *Provider) Stored(ctx context.Context, userID string) (*internal.ConnectedAccount, error) {
	if userID == "" {
		return nil, internal.ErrNotAuthenticated
	}
	acc, err := p.storage.Account(ctx, userID, internal.GoogleProvider)
	if errors.Is(err, internal.ErrNotFound) {
		return nil, internal.ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Fresh returns the user's Google account with an access token valid for at
// least Margin, refreshing and persisting it first when needed.
func (p *Provider) Fresh(ctx context.Context, userID string) (*internal.ConnectedAccount, error) {
	acc, err := p.Stored(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc.AccessToken != "" && !acc.Expired(p.now(), p.Margin) {
		return acc, nil
	}
	if acc.RefreshToken == "" {
		return nil, &internal.RefreshFailedError{Err: internal.ErrNoRefreshToken}
	}

	// Concurrent requests for the same account share one refresh grant.
	v, err, _ := p.group.Do(acc.ID, func() (any, error) {
		return p.refresh(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return v.(*internal.ConnectedAccount), nil
}

func (p *Provider) refresh(ctx context.Context, acc *internal.ConnectedAccount) (*internal.ConnectedAccount, error) {
	p.logger.Debug("Refreshing google token.", "user_id", acc.UserID, "account_id", acc.ID)

	ts := p.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: acc.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		p.logger.Warn("Google token refresh rejected.", "user_id", acc.UserID, "error", err)
		return nil, &internal.RefreshFailedError{Err: err}
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = p.now().Add(defaultExpiresIn)
	}
	expiresAt = expiresAt.UTC()

	var rotated string
	if tok.RefreshToken != "" && tok.RefreshToken != acc.RefreshToken {
		rotated = tok.RefreshToken
	}

	err = p.storage.UpdateAccountToken(ctx, acc.ID, tok.AccessToken, rotated, &expiresAt)
	if err != nil {
		return nil, err
	}

	res := *acc
	res.AccessToken = tok.AccessToken
	res.ExpiresAt = &expiresAt
	if rotated != "" {
		res.RefreshToken = rotated
	}
	if tok.TokenType != "" {
		res.TokenType = tok.TokenType
	}
	p.logger.Info("Google token refreshed.", "user_id", acc.UserID, "expires_at", expiresAt)
	return &res, nil
}
