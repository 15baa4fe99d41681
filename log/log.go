package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
)

// ErrUnknownFormat is the error returned by NewHandler for formats other than "text" and "json".
var ErrUnknownFormat = fmt.Errorf("unknown log format")

// Error returns a slog.Attr for the provided error. The key will be ErrorKey.
func Error(e error) slog.Attr {
	return slog.Any(ErrorKey, e)
}

// sink forwards records to whatever slog.Handler was most recently passed to To. Loggers handed out by ForComponent
// keep their attributes and groups as a chain that is replayed against the current handler, so calling To after a
// logger was constructed still redirects it.
type sink struct {
	h *atomic.Pointer[slog.Handler]

	attrs  []slog.Attr
	groups []string
}

func (s *sink) current() slog.Handler {
	h := s.h.Load()
	if h == nil {
		return nil
	}

	handler := *h
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}

	for _, g := range s.groups {
		handler = handler.WithGroup(g)
	}

	return handler
}

func (s *sink) Enabled(ctx context.Context, level slog.Level) bool {
	h := s.current()
	if h == nil {
		return false
	}

	return h.Enabled(ctx, level)
}

func (s *sink) Handle(ctx context.Context, record slog.Record) error {
	h := s.current()
	if h == nil {
		return nil
	}

	return h.Handle(ctx, record)
}

func (s *sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sink{
		h:      s.h,
		attrs:  append(s.attrs[:len(s.attrs):len(s.attrs)], attrs...),
		groups: s.groups,
	}
}

func (s *sink) WithGroup(name string) slog.Handler {
	return &sink{
		h:      s.h,
		attrs:  s.attrs,
		groups: append(s.groups[:len(s.groups):len(s.groups)], name),
	}
}

var _ slog.Handler = &sink{}

var root = &sink{h: &atomic.Pointer[slog.Handler]{}}

// To updates every slog.Logger handed out by ForComponent to write to the provided slog.Handler. Until To is called
// with a non-discarding handler, log records are dropped.
func To(h slog.Handler) {
	root.h.Store(&h)
}

// ForComponent constructs a slog.Logger for the specified component (which is stored in an attribute with the key
// ComponentKey).
func ForComponent(component string) *slog.Logger {
	return slog.New(root).With(slog.String(ComponentKey, component))
}

// NewHandler builds the slog.Handler described by the configured level and format. Level accepts anything
// slog.Level.UnmarshalText does ("debug", "INFO", "warn+2", ...).
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
