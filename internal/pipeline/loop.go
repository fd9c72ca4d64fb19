package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marketloom/marketloom/internal/ohlcv"
	"github.com/marketloom/marketloom/internal/schema"
)

// Loop feeds queued ticks to the aggregator from a single goroutine.
//
// Submit is safe to call from any goroutine; Run must only be called once.
// Malformed ticks are logged and skipped so one bad producer cannot stall
// the stream.
type Loop struct {
	queue *tickQueue
	agg   *ohlcv.Aggregator
	log   *slog.Logger
}

// NewLoop creates a loop draining into agg.
func NewLoop(agg *ohlcv.Aggregator, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{queue: newTickQueue(), agg: agg, log: log}
}

// Submit enqueues one tick. Returns false after Close.
func (l *Loop) Submit(t schema.Tick) bool {
	return l.queue.enqueue(t)
}

// Close stops intake. Run drains what is queued, flushes open bars, and
// returns.
func (l *Loop) Close() {
	l.queue.close()
}

// Run processes ticks until the queue is closed and drained, or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		tick, ok := l.queue.tryDequeue()
		if !ok {
			if l.queue.drained() {
				return l.agg.Flush()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.queue.wait():
			}
			continue
		}

		if err := l.agg.HandleTick(tick); err != nil {
			var ie *ohlcv.InputError
			if errors.As(err, &ie) {
				l.log.Warn("dropping malformed tick",
					"code", string(ie.Code),
					"symbol", ie.Symbol,
					"reason", ie.Message)
				continue
			}
			return err
		}
	}
}
