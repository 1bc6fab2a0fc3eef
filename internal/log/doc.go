// Package log provides the structured progress-event surface on top of
// the standard slog package.
//
// Scan components log through ordinary slog loggers. The EventHandler
// wraps any slog.Handler and mirrors every record as a progress Event
// {timestamp, session_label | "system", level, message} to a subscriber,
// which a live-progress consumer (terminal UI, web socket, test) can
// observe while sessions run. Logging and the final evidence report are
// independent: events flow as pages are visited regardless of what the
// report later contains.
//
// The package defines a SUCCESS level between INFO and WARNING for
// milestone events ("session complete", "report written") so progress
// consumers can render them distinctly.
//
// # Usage
//
//	logger := log.NewProgressLogger(os.Stderr, verbose, func(e log.Event) {
//	    ui.Append(e)
//	})
//	logger.Info("page visited", "session", "compliance", "url", u)
package log
