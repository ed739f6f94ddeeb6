package offline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DrainWorker periodically replays the capture queue. It is the "connectivity
// returned" path for captures accepted while the store was down.
type DrainWorker struct {
	queue    *CaptureQueue
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

func NewDrainWorker(queue *CaptureQueue, interval time.Duration, logger *zap.Logger) *DrainWorker {
	return &DrainWorker{
		queue:    queue,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the drain loop until ctx is cancelled.
func (w *DrainWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("drain worker stopping")
				return
			case <-ticker.C:
				result, err := w.queue.Drain(ctx)
				if err != nil {
					w.logger.Warn("drain pass failed", zap.Error(err))
					continue
				}
				if len(result.Applied) > 0 || len(result.Failed) > 0 {
					w.logger.Info("drain pass finished",
						zap.Int("applied", len(result.Applied)),
						zap.Int("failed", len(result.Failed)),
					)
				}
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (w *DrainWorker) Wait() {
	<-w.done
}
