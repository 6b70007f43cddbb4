// Package log provides structured logging over log/slog with a trace
// level, selectable text/JSON output, and colorized pretty printing for
// interactive use.
//
// A [Logger] is a value; the zero value discards everything, so types can
// embed one without nil checks. Construction is explicit:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//	)
//	logger.Info("compiled", slog.String("path", path))
//
// [Level] and [Format] implement encoding.TextUnmarshaler, so both can be
// bound directly to command-line flags.
package log
