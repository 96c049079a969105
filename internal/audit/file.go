package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLog stores the audit trail as a single pretty-printed JSON array.
// Every append rewrites the whole file; concurrent processes are not
// coordinated and a racing writer can lose an update.
type FileLog struct {
	path       string
	lookback   []string
	maxEntries int
	mu         sync.Mutex
}

// FileOption configures a FileLog.
type FileOption func(*FileLog)

// WithLookbackPaths sets the log files RecentMatching scans, in order.
// The primary path is always scanned, first if not listed.
func WithLookbackPaths(paths ...string) FileOption {
	return func(l *FileLog) {
		l.lookback = append([]string(nil), paths...)
	}
}

// WithMaxEntries bounds how many of the newest entries are scanned per file.
func WithMaxEntries(n int) FileOption {
	return func(l *FileLog) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// NewFileLog returns a FileLog writing to path. The file and its directory
// are created on the first append.
func NewFileLog(path string, opts ...FileOption) *FileLog {
	l := &FileLog{path: path, maxEntries: DefaultLookbackEntries}
	for _, opt := range opts {
		opt(l)
	}
	l.lookback = lookbackOrder(path, l.lookback)
	return l
}

// Path returns the primary log file.
func (l *FileLog) Path() string { return l.path }

// Append adds e to the end of the log. An absent or corrupt file is
// replaced by a log holding just e.
func (l *FileLog) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := readEntries(l.path)
	if err != nil {
		entries = nil
	}
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding audit log: %w", err)
	}
	data = append(data, '\n')
	return writeAtomic(l.path, data)
}

// Entries returns every entry of the primary log, oldest first. A missing
// file yields no entries; a corrupt one is reported.
func (l *FileLog) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return readEntries(l.path)
}

// RecentMatching scans the newest entries of every lookback path. Missing
// and unreadable files are skipped.
func (l *FileLog) RecentMatching(now time.Time, window time.Duration, match func(Entry) bool) (bool, error) {
	for _, p := range l.lookback {
		entries, err := readEntries(p)
		if err != nil {
			continue
		}
		if scanNewest(entries, l.maxEntries, now, window, match) {
			return true, nil
		}
	}
	return false, nil
}

// Close is a no-op; FileLog holds no open handles between calls.
func (l *FileLog) Close() error { return nil }

func readEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing audit log %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal(r, &e); err != nil {
			continue // skip malformed records
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating audit log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".audit-*.json")
	if err != nil {
		return fmt.Errorf("creating temp audit log: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing audit log: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting audit log permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing audit log: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing audit log: %w", err)
	}
	return nil
}

// lookbackOrder puts primary first unless the caller placed it, and drops
// duplicates after cleaning.
func lookbackOrder(primary string, paths []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		key := filepath.Clean(p)
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	hasPrimary := false
	for _, p := range paths {
		if filepath.Clean(p) == filepath.Clean(primary) {
			hasPrimary = true
		}
	}
	if !hasPrimary {
		add(primary)
	}
	for _, p := range paths {
		add(p)
	}
	return out
}
