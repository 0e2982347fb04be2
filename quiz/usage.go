package quiz

import (
	"sync"
	"time"

	"github.com/korjavin/docquizbot/models"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour
)

// UsageTracker enforces per-user upload quotas. Records live in memory for the
// lifetime of the process and are created lazily on first contact.
type UsageTracker struct {
	mu         sync.Mutex
	records    map[int64]*models.UsageRecord
	maxPerHour int
	maxPerDay  int
	now        func() time.Time
}

// NewUsageTracker creates a tracker. A nil clock means time.Now.
func NewUsageTracker(maxPerHour, maxPerDay int, now func() time.Time) *UsageTracker {
	if now == nil {
		now = time.Now
	}
	return &UsageTracker{
		records:    make(map[int64]*models.UsageRecord),
		maxPerHour: maxPerHour,
		maxPerDay:  maxPerDay,
		now:        now,
	}
}

// Admit reports whether the user may upload another document. It only creates
// or resets the record; counters are charged by Record.
func (t *UsageTracker) Admit(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.recordLocked(userID, now)

	if !rec.LastUploadAt.IsZero() && now.Sub(rec.LastUploadAt) < hourWindow &&
		rec.UploadsThisHour >= t.maxPerHour {
		return false
	}
	return rec.UploadsToday < t.maxPerDay
}

// Record charges one upload to the user.
func (t *UsageTracker) Record(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.recordLocked(userID, now)
	if rec.LastUploadAt.IsZero() || now.Sub(rec.LastUploadAt) >= hourWindow {
		rec.UploadsThisHour = 0
	}
	rec.UploadsThisHour++
	rec.UploadsToday++
	rec.LastUploadAt = now
}

// Refund takes back one charge made by Record.
func (t *UsageTracker) Refund(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[userID]
	if !ok {
		return
	}
	if rec.UploadsThisHour > 0 {
		rec.UploadsThisHour--
	}
	if rec.UploadsToday > 0 {
		rec.UploadsToday--
	}
}

// Snapshot returns a copy of the user's record, if one exists.
func (t *UsageTracker) Snapshot(userID int64) (models.UsageRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[userID]
	if !ok {
		return models.UsageRecord{}, false
	}
	return *rec, true
}

// Len returns the number of tracked users.
func (t *UsageTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

func (t *UsageTracker) recordLocked(userID int64, now time.Time) *models.UsageRecord {
	rec, ok := t.records[userID]
	if !ok {
		rec = &models.UsageRecord{WindowAnchor: now}
		t.records[userID] = rec
	}
	if now.Sub(rec.WindowAnchor) > dayWindow {
		rec.UploadsToday = 0
		rec.WindowAnchor = now
	}
	return rec
}
