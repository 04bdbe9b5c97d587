package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

func recovered(ctx context.Context, logger *slog.Logger, rec any, idx int) error {
	logger.ErrorContext(ctx, "panic recovered",
		"error", rec,
		"stack", string(debug.Stack()),
		"index", idx,
	)
	return fmt.Errorf("panic while processing record %d: %v", idx, rec)
}
