package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/guilherme-santos/calendarhub/internal"
)

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) AccessToken(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(nil, fakeTokens{token: "access-1"}, option.WithEndpoint(srv.URL+"/"))
	c.sleep = time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func googleError(w http.ResponseWriter, status int, reason, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": msg,
			"errors":  []map[string]any{{"reason": reason, "message": msg}},
		},
	})
}

func TestClient_Events(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "250", q.Get("maxResults"))
		assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("timeMin"))
		assert.Empty(t, q.Get("timeMax"))

		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{
					"id":      "g1",
					"summary": "Standup",
					"start":   map[string]any{"dateTime": "2024-01-10T09:00:00Z"},
					"end":     map[string]any{"dateTime": "2024-01-10T09:15:00Z"},
				},
				{
					"id":    "g2",
					"start": map[string]any{"date": "2024-01-11"},
					"end":   map[string]any{"date": "2024-01-12"},
				},
			},
		})
	})
	c := newTestClient(t, mux)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.Events(context.Background(), "user-1", internal.PrimaryCalendar, from, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "g1", events[0].GoogleEventID)
	assert.Equal(t, "Standup", events[0].Title)
	assert.False(t, events[0].AllDay)
	assert.Equal(t, "g2", events[1].GoogleEventID)
	assert.True(t, events[1].AllDay)
	assert.Equal(t, untitledEvent, events[1].Title)
}

func TestClient_EventsWithUpperBound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-02-01T00:00:00Z", r.URL.Query().Get("timeMax"))
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	})
	c := newTestClient(t, mux)

	events, err := c.Events(context.Background(), "user-1", internal.PrimaryCalendar,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_CreateEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, "Standup", body["summary"])
		assert.Equal(t, map[string]any{"dateTime": "2024-01-10T09:00:00Z", "timeZone": "UTC"}, body["start"])
		assert.Equal(t, map[string]any{"dateTime": "2024-01-10T09:30:00Z", "timeZone": "UTC"}, body["end"])
		assert.NotContains(t, body, "status")

		body["id"] = "abc123"
		writeJSON(w, http.StatusOK, body)
	})
	c := newTestClient(t, mux)

	created, err := c.CreateEvent(context.Background(), "user-1", internal.PrimaryCalendar, &internal.Event{
		Title:    "Standup",
		StartsAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
		Status:   internal.Confirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", created.GoogleEventID)
}

func TestClient_CreateCancelledEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cancelled", body["status"])

		body["id"] = "c1"
		writeJSON(w, http.StatusOK, body)
	})
	c := newTestClient(t, mux)

	created, err := c.CreateEvent(context.Background(), "user-1", internal.PrimaryCalendar, &internal.Event{
		Title:    "Dropped",
		StartsAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC),
		Status:   internal.Cancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, internal.Cancelled, created.Status)
}

func TestClient_UpdateEventPatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /calendars/primary/events/g1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "confirmed", body["status"])
		assert.Contains(t, body, "description")

		body["id"] = "g1"
		writeJSON(w, http.StatusOK, body)
	})
	c := newTestClient(t, mux)

	updated, err := c.UpdateEvent(context.Background(), "user-1", internal.PrimaryCalendar, &internal.Event{
		Title:         "Standup",
		GoogleEventID: "g1",
		StartsAt:      time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
		Status:        internal.Confirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", updated.GoogleEventID)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC), updated.EndsAt)
}

func TestClient_DeleteEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /calendars/primary/events/g1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /calendars/primary/events/gone", func(w http.ResponseWriter, r *http.Request) {
		googleError(w, http.StatusGone, "deleted", "Resource has been deleted")
	})
	mux.HandleFunc("DELETE /calendars/primary/events/missing", func(w http.ResponseWriter, r *http.Request) {
		googleError(w, http.StatusNotFound, "notFound", "Not Found")
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.DeleteEvent(ctx, "user-1", internal.PrimaryCalendar, "g1"))
	require.NoError(t, c.DeleteEvent(ctx, "user-1", internal.PrimaryCalendar, "gone"))

	err := c.DeleteEvent(ctx, "user-1", internal.PrimaryCalendar, "missing")
	var remoteErr *internal.RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusNotFound, remoteErr.Status)
}

func TestClient_RemoteErrorPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		googleError(w, http.StatusBadRequest, "invalid", "Invalid start time.")
	})
	c := newTestClient(t, mux)

	_, err := c.CreateEvent(context.Background(), "user-1", internal.PrimaryCalendar, &internal.Event{
		Title:    "x",
		StartsAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC),
	})
	var remoteErr *internal.RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
	assert.Equal(t, "Invalid start time.", remoteErr.Message)
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			googleError(w, http.StatusForbidden, "rateLimitExceeded", "Rate Limit Exceeded")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	})
	c := newTestClient(t, mux)

	_, err := c.Events(context.Background(), "user-1", internal.PrimaryCalendar, time.Now(), time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_RetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		googleError(w, http.StatusForbidden, "rateLimitExceeded", "Rate Limit Exceeded")
	})
	c := newTestClient(t, mux)

	_, err := c.Events(context.Background(), "user-1", internal.PrimaryCalendar, time.Now(), time.Time{})
	var remoteErr *internal.RemoteAPIError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.Status)
	assert.EqualValues(t, maxAttempts, calls.Load())
}

func TestClient_TokenErrorIsNotWrapped(t *testing.T) {
	c := NewClient(nil, fakeTokens{err: internal.ErrNotConnected})

	_, err := c.Events(context.Background(), "user-1", internal.PrimaryCalendar, time.Now(), time.Time{})
	require.True(t, errors.Is(err, internal.ErrNotConnected))
	assert.True(t, internal.IsAuthError(err))
}

func TestClient_Calendars(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me/calendarList", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "me@example.com", "summary": "Me", "primary": true, "accessRole": "owner"},
				{"id": "team@example.com", "summary": "Team", "accessRole": "reader"},
			},
		})
	})
	c := newTestClient(t, mux)

	cals, err := c.Calendars(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.True(t, cals[0].Primary)
	assert.Equal(t, "owner", cals[0].AccessRole)
	assert.Equal(t, "Team", cals[1].Summary)
}
