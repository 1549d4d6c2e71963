package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/guilherme-santos/calendarhub/internal"
)

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, err := issuer.Generate("user-1", "ann@example.com")
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = NewIssuer("other", time.Hour).Validate(token)
	assert.Error(t, err)

	_, err = issuer.Generate("", "")
	assert.Error(t, err)
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer("secret", -time.Minute)

	token, err := issuer.Generate("user-1", "")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestIssuer_RejectsUnsignedTokens(t *testing.T) {
	claims := &Claims{UserID: "user-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	}))

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "not authenticated: missing token", body["error"])
	})

	t.Run("invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := issuer.Generate("user-1", "")
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", w.Body.String())
	})
}

type memAccounts struct {
	mu       sync.Mutex
	accounts []*internal.ConnectedAccount
}

func (m *memAccounts) UpsertAccount(_ context.Context, acc *internal.ConnectedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *acc
	m.accounts = append(m.accounts, &cp)
	return nil
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"expires_in": 3600,
			"token_type": "Bearer",
			"scope": "https://www.googleapis.com/auth/calendar https://www.googleapis.com/auth/calendar.events"
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestConnector(t *testing.T, redirectURL string) (*GoogleConnector, *memAccounts) {
	t.Helper()

	srv := newTokenServer(t)
	cfg := NewOAuthConfig("client-id", "client-secret", redirectURL)
	cfg.Endpoint = oauth2.Endpoint{
		AuthURL:   "https://accounts.example.com/o/oauth2/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	storage := &memAccounts{}
	return NewGoogleConnector(nil, cfg, NewCookieStore("session-secret", false), storage), storage
}

func TestGoogleConnector_StartAndCallback(t *testing.T) {
	c, storage := newTestConnector(t, "http://localhost:8080/oauth/google/callback")

	w := httptest.NewRecorder()
	authURL, err := c.Start(w, httptest.NewRequest(http.MethodPost, "/oauth/google/start", nil), "user-1")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "https://www.googleapis.com/auth/calendar https://www.googleapis.com/auth/calendar.events", q.Get("scope"))
	state := q.Get("state")
	require.NotEmpty(t, state)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	callback := func(state, code string) (*internal.ConnectedAccount, error) {
		r := httptest.NewRequest(http.MethodGet, "/oauth/google/callback?state="+state+"&code="+code, nil)
		for _, cookie := range cookies {
			r.AddCookie(cookie)
		}
		return c.Callback(httptest.NewRecorder(), r)
	}

	_, err = callback("forged", "good-code")
	assert.ErrorIs(t, err, ErrInvalidState)

	acc, err := callback(state, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "user-1", acc.UserID)
	assert.Equal(t, internal.GoogleProvider, acc.Provider)
	assert.Equal(t, "access-1", acc.AccessToken)
	assert.Equal(t, "refresh-1", acc.RefreshToken)
	assert.Contains(t, acc.Scope, "calendar.events")
	require.NotNil(t, acc.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *acc.ExpiresAt, time.Minute)
	require.Len(t, storage.accounts, 1)

	_, err = callback(state, "bad-code")
	assert.Error(t, err)
	assert.Len(t, storage.accounts, 1)
}

func TestGoogleConnector_CallbackWithoutSession(t *testing.T) {
	c, _ := newTestConnector(t, "http://localhost:8080/oauth/google/callback")

	r := httptest.NewRequest(http.MethodGet, "/oauth/google/callback?state=x&code=good-code", nil)
	_, err := c.Callback(httptest.NewRecorder(), r)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGoogleConnector_StartRequiresUser(t *testing.T) {
	c, _ := newTestConnector(t, "http://localhost:8080/oauth/google/callback")

	_, err := c.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/oauth/google/start", nil), "")
	assert.ErrorIs(t, err, internal.ErrNotAuthenticated)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func freeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestGoogleConnector_Login(t *testing.T) {
	addr := freeAddr(t)
	c, storage := newTestConnector(t, "http://"+addr+"/callback")

	out := &syncBuffer{}
	type result struct {
		acc *internal.ConnectedAccount
		err error
	}
	done := make(chan result, 1)
	go func() {
		acc, err := c.Login(context.Background(), "user-1", out)
		done <- result{acc, err}
	}()

	var authURL string
	require.Eventually(t, func() bool {
		for _, line := range strings.Split(out.String(), "\n") {
			if strings.HasPrefix(line, "https://") {
				authURL = line
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")

	resp, err := http.Get("http://" + addr + "/callback?state=" + state + "&code=good-code")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "user-1", res.acc.UserID)
	assert.Len(t, storage.accounts, 1)
}

func TestGoogleConnector_LoginCancelled(t *testing.T) {
	c, _ := newTestConnector(t, "http://"+freeAddr(t)+"/callback")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Login(ctx, "user-1", &syncBuffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
