package typeset

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/typeset/glyphcache"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. SetLogger may run concurrently with
// logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for typeset and its sub-packages.
// By default typeset produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by typeset:
//   - [slog.LevelDebug]: shaping calls, glyph cache evictions
//   - [slog.LevelWarn]: glyph rasterization failures, rasterizer close errors
//
// Example:
//
//	typeset.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	glyphcache.SetLogger(l)
}

// Logger returns the current logger used by typeset.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
