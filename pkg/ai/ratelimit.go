package ai

import (
	"context"
	"log/slog"
	"time"
)

// rateLimitWindow is how long a persisted quota event suppresses further
// log entries. Slightly under a day so a daily-quota outage is logged
// once per day, not once per request.
const rateLimitWindow = 23 * time.Hour

const rateLimitMessage = "model provider rate limit exceeded"

// ErrorLog is the persisted record of observed rate-limit events.
type ErrorLog interface {
	// LastRateLimitEvent returns the timestamp of the most recent event,
	// or ok=false when none has been recorded.
	LastRateLimitEvent(ctx context.Context) (t time.Time, ok bool, err error)
	InsertRateLimitEvent(ctx context.Context, message string) error
}

// Tracker de-duplicates quota-exceeded log entries: an event is persisted
// only when no prior event exists or the last one is older than the
// window. Two overlapping calls may both decide to insert; the duplicate
// row is harmless and accepted, so no locking is done here.
type Tracker struct {
	store ErrorLog
	now   func() time.Time
	log   *slog.Logger
}

// NewTracker creates a tracker over the given event log.
func NewTracker(store ErrorLog) *Tracker {
	return &Tracker{store: store, now: time.Now, log: slog.Default()}
}

// RecordQuotaExceeded conditionally persists a quota event. Storage
// failures are logged and swallowed; losing a log row must never break
// the request that observed the quota error.
func (t *Tracker) RecordQuotaExceeded(ctx context.Context) {
	last, ok, err := t.store.LastRateLimitEvent(ctx)
	if err != nil {
		t.log.Error("reading last rate limit event", "error", err)
		return
	}
	if ok && t.now().Sub(last) <= rateLimitWindow {
		return
	}

	t.log.Info("recording new rate limit event")
	if err := t.store.InsertRateLimitEvent(ctx, rateLimitMessage); err != nil {
		t.log.Error("recording rate limit event", "error", err)
	}
}
