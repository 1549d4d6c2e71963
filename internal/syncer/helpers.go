package syncer

import (
	"log/slog"
	"time"
)

func (s *Syncer) lock(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[userID]; ok {
		return false
	}
	s.running[userID] = struct{}{}
	return true
}

func (s *Syncer) unlock(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, userID)
}

// inWindow mirrors the overlap rule Google applies to timeMin/timeMax.
func inWindow(e *Event, from, to time.Time) bool {
	if !from.IsZero() && !e.EndsAt.After(from) {
		return false
	}
	if !to.IsZero() && !e.StartsAt.Before(to) {
		return false
	}
	return true
}

// coveredUntil returns the latest start among events, capped at to. Events
// starting at that instant may still be on a later page so the bound is
// exclusive.
func coveredUntil(events []*Event, to time.Time) time.Time {
	var last time.Time
	for _, e := range events {
		if e.StartsAt.After(last) {
			last = e.StartsAt
		}
	}
	if to.IsZero() || last.Before(to) {
		return last
	}
	return to
}

func formatDateTime(d time.Time) string {
	return d.In(time.Local).Format("02 Jan 06 15:04")
}

func logEvent(logger *slog.Logger, msg string, e *Event) {
	logger.Debug(msg,
		"event_id", e.ID,
		"google_event_id", e.GoogleEventID,
		"title", e.Title,
		"starts_at", formatDateTime(e.StartsAt),
	)
}
