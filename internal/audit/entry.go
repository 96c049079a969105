// Package audit persists evaluated requests and answers bounded lookback
// queries over them.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/gzhole/toolguard/internal/redact"
	"github.com/gzhole/toolguard/internal/request"
)

// DefaultLookbackEntries is how many of the newest entries a lookback scans
// per log location.
const DefaultLookbackEntries = 20

// Entry is one stored request. The embedded payload keeps the hook's own
// field names so the log reads like the input that produced it.
type Entry struct {
	ID        string   `json:"id,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Decision  string   `json:"decision,omitempty"`
	Triggered []string `json:"triggered,omitempty"`
	request.Payload
}

// NewEntry stamps req with a fresh ID and the ingestion time. Request text
// is redacted; the stored copy never carries credentials.
func NewEntry(req request.Request, at time.Time) Entry {
	p := req.Payload()
	redact.Strings(&p.ToolInput.Command, &p.ToolInput.Content, &p.ToolInput.OldString, &p.ToolInput.NewString)
	for i := range p.ToolInput.Edits {
		redact.Strings(&p.ToolInput.Edits[i].OldString, &p.ToolInput.Edits[i].NewString)
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Payload:   p,
	}
}

// Time parses the ingestion timestamp. Entries written by older hooks carry
// none and report ok=false.
func (e Entry) Time() (time.Time, bool) {
	if e.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Request rebuilds the typed request the entry was made from.
func (e Entry) Request() request.Request {
	return request.FromPayload(e.Payload)
}

// Reader answers time-windowed questions about recent entries.
type Reader interface {
	// RecentMatching reports whether any of the newest entries was ingested
	// within window before now and satisfies match.
	RecentMatching(now time.Time, window time.Duration, match func(Entry) bool) (bool, error)
}

// Logger is the audit store the hook appends to.
type Logger interface {
	Reader
	Append(e Entry) error
	Entries() ([]Entry, error)
	Close() error
}

// withinWindow reports whether e was ingested in (now-window, now].
func withinWindow(e Entry, now time.Time, window time.Duration) bool {
	t, ok := e.Time()
	if !ok {
		return false
	}
	return t.After(now.Add(-window)) && !t.After(now)
}

// scanNewest walks at most limit entries from the end of entries.
func scanNewest(entries []Entry, limit int, now time.Time, window time.Duration, match func(Entry) bool) bool {
	if limit <= 0 {
		limit = DefaultLookbackEntries
	}
	start := len(entries) - limit
	if start < 0 {
		start = 0
	}
	for i := len(entries) - 1; i >= start; i-- {
		if withinWindow(entries[i], now, window) && match(entries[i]) {
			return true
		}
	}
	return false
}
