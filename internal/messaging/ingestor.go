// Package messaging pulls chat messages from the messaging provider and fans
// them out to a pool of workers.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"nutri/internal/messaging/metrics"
	"nutri/internal/messaging/models"
)

// Ingestor connects one Source to a fixed number of workers.
type Ingestor struct {
	source  Source
	handler Handler
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Ingestor)

func WithWorkers(n int) Option {
	return func(i *Ingestor) {
		if n > 0 {
			i.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

func NewIngestor(source Source, handler Handler, opts ...Option) *Ingestor {
	i := &Ingestor{
		source:  source,
		handler: handler,
		workers: 1,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run blocks until the source stops and every worker has drained the queue.
func (i *Ingestor) Run(ctx context.Context) error {
	queue := make(chan models.Message, i.workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		if err := i.source.Run(gctx, queue); err != nil {
			return fmt.Errorf("messaging source: %w", err)
		}
		return nil
	})

	for n := range i.workers {
		w := &worker{id: n, handler: i.handler, logger: i.logger, metrics: i.metrics}
		g.Go(func() error {
			w.run(ctx, queue)
			return nil
		})
	}

	i.logger.InfoContext(ctx, "messaging ingestion started", "workers", i.workers)
	err := g.Wait()
	i.logger.InfoContext(ctx, "messaging ingestion stopped")
	return err
}

type worker struct {
	id      int
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// run consumes until queue is closed. Messages already queued are handled
// even after cancellation.
func (w *worker) run(ctx context.Context, queue <-chan models.Message) {
	for msg := range queue {
		err := w.handle(context.WithoutCancel(ctx), msg)
		w.metrics.RecordHandled(err)
		if err != nil {
			w.logger.ErrorContext(ctx, "message handler failed",
				"worker", w.id,
				"message_id", msg.ID,
				"error", err,
			)
		}
	}
}

func (w *worker) handle(ctx context.Context, msg models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handler.Handle(ctx, msg)
}
