package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/adsift"
)

// Ensure LoggingSaver implements adsift.Saver.
var _ adsift.Saver = (*LoggingSaver)(nil)

// LoggingSaver wraps a Saver with logging.
type LoggingSaver struct {
	next   adsift.Saver
	logger *slog.Logger
}

// NewLoggingSaver creates a new LoggingSaver.
func NewLoggingSaver(next adsift.Saver, logger *slog.Logger) *LoggingSaver {
	return &LoggingSaver{next: next, logger: logger}
}

// Save delegates to the wrapped saver and logs where the file went.
func (s *LoggingSaver) Save(ctx context.Context, name string, data []byte) (path string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Error("save", "name", name, "err", err)
			return
		}
		s.logger.Info("save",
			"path", path,
			"bytes", len(data),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.Save(ctx, name, data)
}
