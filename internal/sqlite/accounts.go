package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
)

const accountColumns = `id, user_id, provider, provider_account_id, access_token, refresh_token, expires_at,
	scope, token_type, is_primary, created_at, updated_at`

// UpsertAccount stores the tokens obtained from an OAuth handshake. A
// missing refresh token keeps the one already stored, since providers only
// hand it out on first consent.
func (s Storage) UpsertAccount(ctx context.Context, acc *internal.ConnectedAccount) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connected_accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			provider_account_id = excluded.provider_account_id,
			access_token = excluded.access_token,
			refresh_token = COALESCE(excluded.refresh_token, connected_accounts.refresh_token),
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			token_type = excluded.token_type,
			is_primary = excluded.is_primary,
			updated_at = excluded.updated_at
	`, newID(), acc.UserID, acc.Provider, acc.ProviderAccountID, acc.AccessToken, nullString(acc.RefreshToken),
		nullTime(acc.ExpiresAt), acc.Scope, acc.TokenType, acc.IsPrimary, now, now)
	if err != nil {
		return wrap("upsert account", err)
	}

	stored, err := s.Account(ctx, acc.UserID, acc.Provider)
	if err != nil {
		return err
	}
	*acc = *stored
	return nil
}

// Account returns the most recently updated account of the user for
// provider.
func (s Storage) Account(ctx context.Context, userID, provider string) (*internal.ConnectedAccount, error) {
	var row ConnectedAccount
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM connected_accounts
		WHERE user_id = ? AND provider = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrNotFound
	}
	if err != nil {
		return nil, wrap("get account", err)
	}
	return row.Convert(), nil
}

// UpdateAccountToken stores a refreshed access token. An empty refreshToken
// keeps the stored one.
func (s Storage) UpdateAccountToken(ctx context.Context, id, accessToken, refreshToken string, expiresAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE connected_accounts
		SET access_token = ?, refresh_token = COALESCE(?, refresh_token), expires_at = ?, updated_at = ?
		WHERE id = ?
	`, accessToken, nullString(refreshToken), nullTime(expiresAt), s.now(), id)
	return wrap("update account token", err)
}
