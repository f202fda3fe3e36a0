package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/adsift"
)

// Ensure LoggingHider implements adsift.Hider.
var _ adsift.Hider = (*LoggingHider)(nil)

// LoggingHider wraps a Hider with debug timing of each pass.
type LoggingHider struct {
	next   adsift.Hider
	logger *slog.Logger
}

// NewLoggingHider creates a new LoggingHider.
func NewLoggingHider(next adsift.Hider, logger *slog.Logger) *LoggingHider {
	return &LoggingHider{next: next, logger: logger}
}

// Apply delegates to the wrapped hider.
func (h *LoggingHider) Apply(root adsift.Node) {
	defer func(begin time.Time) {
		h.logger.Debug("hide pass", "duration", time.Since(begin))
	}(time.Now())
	h.next.Apply(root)
}
