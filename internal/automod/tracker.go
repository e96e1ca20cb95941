package automod

import (
	"context"
	"sync"
	"time"
)

// RateWindow is the sliding interval used for rate and duplicate tracking.
const RateWindow = 60 * time.Second

// RateState is the post-update snapshot of a user's short-window behavior.
type RateState struct {
	MessageCount   int
	DuplicateCount int
	WindowStart    time.Time
}

// Tracker maintains per-(guild, user) sliding-window message counts.
//
// Track records one message and returns the updated state:
//   - no record, or the window expired: the record is replaced with
//     count=1, duplicates=0, window starting now;
//   - otherwise the count is incremented and the duplicate streak grows only
//     while consecutive messages carry identical content.
//
// Updates for the same key are serialized so concurrent messages never both
// observe a stale count.
type Tracker interface {
	Track(ctx context.Context, guildID, userID uint64, content string, now time.Time) (RateState, error)
}

type trackerKey struct {
	guildID uint64
	userID  uint64
}

type trackerEntry struct {
	messageCount   int
	duplicateCount int
	lastContent    string
	windowStart    time.Time
}

// MemTracker is an in-memory Tracker for single-process deployments and tests.
type MemTracker struct {
	mu      sync.Mutex
	entries map[trackerKey]*trackerEntry
}

// NewMemTracker creates an empty in-memory tracker.
func NewMemTracker() *MemTracker {
	return &MemTracker{
		entries: make(map[trackerKey]*trackerEntry),
	}
}

// Track implements Tracker.
func (t *MemTracker) Track(
	_ context.Context, guildID, userID uint64, content string, now time.Time,
) (RateState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{guildID: guildID, userID: userID}

	entry, ok := t.entries[key]
	if !ok || now.Sub(entry.windowStart) > RateWindow {
		entry = &trackerEntry{
			messageCount: 1,
			lastContent:  content,
			windowStart:  now,
		}
		t.entries[key] = entry

		return snapshot(entry), nil
	}

	entry.messageCount++

	if entry.lastContent == content {
		entry.duplicateCount++
	} else {
		entry.duplicateCount = 0
	}

	// A non-duplicate message breaks the streak, so only consecutive
	// repeats ever count.
	entry.lastContent = content

	return snapshot(entry), nil
}

// Prune drops entries whose window has been idle longer than retention.
func (t *MemTracker) Prune(now time.Time, retention time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, entry := range t.entries {
		if now.Sub(entry.windowStart) > retention {
			delete(t.entries, key)
		}
	}
}

func snapshot(entry *trackerEntry) RateState {
	return RateState{
		MessageCount:   entry.messageCount,
		DuplicateCount: entry.duplicateCount,
		WindowStart:    entry.windowStart,
	}
}
