package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// LevelSuccess marks milestone records. It sits between slog.LevelInfo (0)
// and slog.LevelWarn (4) so a verbose=false logger at INFO still emits it.
const LevelSuccess = slog.Level(2)

// SessionKey is the attribute key components attach to records so the
// progress surface can route events to the originating browsing session.
const SessionKey = "session"

// SystemLabel is the session label assigned to records that carry no
// session attribute, such as CLI startup or report writing.
const SystemLabel = "system"

// Event is a single progress notification mirrored from a log record.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionLabel string    `json:"session_label"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
}

// Subscriber receives progress events. EventHandler serializes
// invocations, so implementations need no locking of their own.
type Subscriber func(Event)

// EventHandler wraps an inner slog.Handler, forwarding every record
// downstream unchanged and mirroring it as an Event to the subscriber.
type EventHandler struct {
	inner slog.Handler

	// session holds the label bound via WithAttrs, if any. A per-record
	// "session" attribute still takes precedence.
	session string

	mu  *sync.Mutex
	sub Subscriber
}

var _ slog.Handler = (*EventHandler)(nil)

// NewEventHandler wraps inner so that every record it handles is also
// delivered to sub. A nil sub yields a passthrough handler.
func NewEventHandler(inner slog.Handler, sub Subscriber) *EventHandler {
	return &EventHandler{
		inner: inner,
		mu:    &sync.Mutex{},
		sub:   sub,
	}
}

// Enabled reports whether the inner handler handles records at the given level.
func (h *EventHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle forwards the record to the inner handler and mirrors it to the
// subscriber. The inner handler's error is returned; subscriber delivery
// never fails.
func (h *EventHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.inner.Handle(ctx, record)
	if h.sub == nil {
		return err
	}

	label := h.session
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == SessionKey {
			label = a.Value.String()
			return false
		}
		return true
	})
	if label == "" {
		label = SystemLabel
	}

	event := Event{
		Timestamp:    record.Time,
		SessionLabel: label,
		Level:        LevelString(record.Level),
		Message:      record.Message,
	}

	h.mu.Lock()
	h.sub(event)
	h.mu.Unlock()
	return err
}

// WithAttrs returns a handler whose records carry attrs. A "session"
// attribute among them binds the session label for all future records.
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	session := h.session
	for _, a := range attrs {
		if a.Key == SessionKey {
			session = a.Value.String()
		}
	}
	return &EventHandler{
		inner:   h.inner.WithAttrs(attrs),
		session: session,
		mu:      h.mu,
		sub:     h.sub,
	}
}

// WithGroup returns a handler that starts a group.
func (h *EventHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &EventHandler{
		inner:   h.inner.WithGroup(name),
		session: h.session,
		mu:      h.mu,
		sub:     h.sub,
	}
}

// LevelString renders a slog level the way progress consumers expect,
// collapsing the custom SUCCESS level into its own name.
func LevelString(level slog.Level) string {
	switch {
	case level < LevelSuccess:
		return "INFO"
	case level < slog.LevelWarn:
		return "SUCCESS"
	case level < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// NewProgressLogger builds the logger used across a scan. Records are
// written to w as text with the SUCCESS level rendered by name, and
// mirrored to sub when sub is non-nil. verbose lowers the threshold to
// DEBUG.
func NewProgressLogger(w io.Writer, verbose bool, sub Subscriber) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelString(lv))
				}
			}
			return a
		},
	})
	return slog.New(NewEventHandler(text, sub))
}

// Success logs a milestone record at the SUCCESS level.
func Success(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelSuccess, msg, args...)
}
