package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
)

const logPrefix = "[toolguard] "

// prefixWriter marks every record the handler writes. slog handlers emit
// one Write per record.
type prefixWriter struct {
	w io.Writer
}

func (p prefixWriter) Write(b []byte) (int, error) {
	var buf bytes.Buffer
	buf.Grow(len(logPrefix) + len(b))
	buf.WriteString(logPrefix)
	buf.Write(b)
	if _, err := p.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.debug || os.Getenv("TOOLGUARD_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(prefixWriter{w: w}, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(h)
}
