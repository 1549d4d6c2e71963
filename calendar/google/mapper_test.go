package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/calendarhub/internal"
)

func TestNewEvent_AllDay(t *testing.T) {
	item := &calendar.Event{
		Id:      "g1",
		Summary: "Holiday",
		Start:   &calendar.EventDateTime{Date: "2024-03-01"},
		End:     &calendar.EventDateTime{Date: "2024-03-02"},
	}

	e := newEvent("user-1", item)
	assert.True(t, e.AllDay)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, "g1", e.GoogleEventID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), e.StartsAt)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), e.EndsAt)
	assert.Equal(t, "UTC", e.Timezone)
	assert.Equal(t, internal.Confirmed, e.Status)
	require.NoError(t, e.Validate())
}

func TestNewEvent_Timed(t *testing.T) {
	item := &calendar.Event{
		Id:         "g2",
		Status:     "tentative",
		Recurrence: []string{"RRULE:FREQ=WEEKLY", "EXDATE:20240115T090000Z"},
		Start:      &calendar.EventDateTime{DateTime: "2024-01-10T10:00:00+01:00", TimeZone: "Europe/Berlin"},
		End:        &calendar.EventDateTime{DateTime: "2024-01-10T10:15:00+01:00", TimeZone: "Europe/Berlin"},
	}

	e := newEvent("user-1", item)
	assert.False(t, e.AllDay)
	assert.Equal(t, untitledEvent, e.Title)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), e.StartsAt)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC), e.EndsAt)
	assert.Equal(t, "Europe/Berlin", e.Timezone)
	assert.Equal(t, internal.Tentative, e.Status)
	assert.Equal(t, "RRULE:FREQ=WEEKLY", e.Recurrence)
}

func TestNewEvent_Status(t *testing.T) {
	tests := map[string]internal.Status{
		"cancelled": internal.Cancelled,
		"tentative": internal.Tentative,
		"confirmed": internal.Confirmed,
		"":          internal.Confirmed,
		"unknown":   internal.Confirmed,
	}
	for remote, want := range tests {
		e := newEvent("u", &calendar.Event{Status: remote})
		assert.Equal(t, want, e.Status, "remote status %q", remote)
	}
}

func TestNewGoogleEvent_AllDayIsDateOnly(t *testing.T) {
	e := &internal.Event{
		Title:    "Offsite",
		AllDay:   true,
		StartsAt: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		Status:   internal.Confirmed,
	}

	g := newGoogleEvent(e)
	assert.Equal(t, "2024-05-06", g.Start.Date)
	assert.Empty(t, g.Start.DateTime)
	assert.Equal(t, "2024-05-08", g.End.Date)
	assert.Empty(t, g.End.DateTime)

	back := newEvent("u", g)
	assert.True(t, back.AllDay)
	assert.Equal(t, e.StartsAt, back.StartsAt)
	assert.Equal(t, e.EndsAt, back.EndsAt)
}

func TestNewGoogleEvent_AllDaySameDay(t *testing.T) {
	e := &internal.Event{
		Title:    "Birthday",
		AllDay:   true,
		StartsAt: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC),
	}

	g := newGoogleEvent(e)
	assert.Equal(t, "2024-05-06", g.Start.Date)
	assert.Equal(t, "2024-05-07", g.End.Date)
}

func TestNewGoogleEvent_Timed(t *testing.T) {
	e := &internal.Event{
		Title:    "Standup",
		StartsAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC),
		Status:   internal.Confirmed,
	}

	g := newGoogleEvent(e)
	assert.Equal(t, "Standup", g.Summary)
	assert.Equal(t, "2024-01-10T09:00:00Z", g.Start.DateTime)
	assert.Equal(t, "2024-01-10T09:15:00Z", g.End.DateTime)
	assert.Equal(t, "UTC", g.Start.TimeZone)
	assert.Empty(t, g.Start.Date)
	assert.Empty(t, g.Status)
	assert.Nil(t, g.Recurrence)
}

func TestNewGoogleEvent_Status(t *testing.T) {
	base := internal.Event{
		Title:    "x",
		StartsAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
	}

	cancelled := base
	cancelled.Status = internal.Cancelled
	assert.Equal(t, "cancelled", newGoogleEvent(&cancelled).Status)

	tentative := base
	tentative.Status = internal.Tentative
	tentative.Recurrence = "RRULE:FREQ=DAILY"
	g := newGoogleEvent(&tentative)
	assert.Equal(t, "tentative", g.Status)
	assert.Equal(t, []string{"RRULE:FREQ=DAILY"}, g.Recurrence)
}
