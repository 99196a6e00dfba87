package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init(environment string) {
	slog.SetDefault(New(os.Stdout, environment))
}

// New builds a logger writing to w with the handler chosen for environment.
func New(w io.Writer, environment string) *slog.Logger {
	var handler slog.Handler
	if strings.ToLower(environment) == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// WithUser returns a logger with the caller's identity attached.
func WithUser(userID, userName string) *slog.Logger {
	return slog.With(
		"user_id", userID,
		"user_name", userName,
	)
}

// WithRobot returns a logger scoped to a robot operation.
func WithRobot(logger *slog.Logger, robotID, op string) *slog.Logger {
	return logger.With(
		"robot_id", robotID,
		"op", op,
	)
}
