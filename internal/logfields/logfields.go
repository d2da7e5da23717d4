package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyVersion    = "version"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyDest       = "destination"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyCommand    = "command"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Destination(d string) slog.Attr  { return slog.String(KeyDest, d) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
