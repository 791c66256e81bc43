package bot

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Supervise keeps run going until ctx is cancelled. When run returns early
// it waits delay, calls onRestart and starts run again.
func Supervise(ctx context.Context, run func(context.Context) error, delay time.Duration, onRestart func(), logger *zap.Logger) {
	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Error("bot stopped, restarting", zap.Error(err), zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if onRestart != nil {
			onRestart()
		}
	}
}
