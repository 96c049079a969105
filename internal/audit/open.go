package audit

import (
	"errors"
	"fmt"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown audit backend")

// Options selects and configures an audit store.
type Options struct {
	Backend       string
	Path          string
	LookbackPaths []string
	MaxEntries    int
}

// Open returns the store named by opts.Backend; empty means JSON.
func Open(opts Options) (Logger, error) {
	switch opts.Backend {
	case "", BackendJSON:
		return NewFileLog(opts.Path,
			WithLookbackPaths(opts.LookbackPaths...),
			WithMaxEntries(opts.MaxEntries),
		), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path, opts.MaxEntries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
