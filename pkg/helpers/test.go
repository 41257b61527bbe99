package helpers

import (
	"context"
	"io"
	"log/slog"

	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

// TestCtx returns a context carrying a logger that discards output.
func TestCtx() context.Context {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	return logger.ToContext(context.Background(), log)
}

// TestCtxLogs returns a context whose logger writes to w, for tests that
// check a failure was logged rather than returned.
func TestCtxLogs(w io.Writer) context.Context {
	log := slog.New(logger.NewCaptureHandler(w, slog.LevelDebug))
	return logger.ToContext(context.Background(), log)
}
