package interrupt

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediakiller/internal/logging"
)

// Watch escalates token on each value received from signals. After the first
// stage, the stop is forced once escalateAfter elapses; zero disables the
// timer. Watch returns when ctx ends, signals closes, or the token is forced.
func Watch(ctx context.Context, token *Token, signals <-chan os.Signal, escalateAfter time.Duration, logger *slog.Logger) {
	logger = logging.NewComponentLogger(logger, "interrupt")
	var timeout <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-token.Forced():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			switch token.Escalate() {
			case Requested:
				logging.WarnWithContext(logger, "stop requested; waiting for running encoders to finish",
					"stop_requested",
					logging.String("signal", sig.String()),
					logging.String(logging.FieldErrorHint, "press Ctrl+C again to abandon running encoders"),
					logging.String(logging.FieldImpact, "no new missions will start"),
				)
				if escalateAfter > 0 && timeout == nil {
					timer := time.NewTimer(escalateAfter)
					defer timer.Stop()
					timeout = timer.C
				}
			case Forced:
				logging.WarnWithContext(logger, "stop forced", "stop_forced",
					logging.String("signal", sig.String()),
					logging.String(logging.FieldImpact, "running encoders are abandoned"),
				)
				return
			}
		case <-timeout:
			if token.Force() {
				logging.WarnWithContext(logger, "stop forced after timeout", "stop_forced",
					logging.Duration("after", escalateAfter),
					logging.String(logging.FieldImpact, "running encoders are abandoned"),
				)
			}
			return
		}
	}
}

// Notify routes SIGINT and SIGTERM into Watch on a background goroutine. The
// returned function detaches the handler.
func Notify(ctx context.Context, token *Token, escalateAfter time.Duration, logger *slog.Logger) func() {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Watch(watchCtx, token, signals, escalateAfter, logger)
	}()
	return func() {
		signal.Stop(signals)
		cancel()
		<-done
	}
}
