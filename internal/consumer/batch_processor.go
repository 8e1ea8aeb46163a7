package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// BatchProcessorConfig configures the batch processor
type BatchProcessorConfig struct {
	MaxBatchSize   int
	FlushTimeout   time.Duration
	MaxConcurrency int
}

// BatchProcessor collects envelopes into batches and attributes the
// conversions of a batch concurrently
type BatchProcessor struct {
	processor ConversionProcessor
	config    BatchProcessorConfig
	log       *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor ConversionProcessor, config BatchProcessorConfig, log *zap.Logger) *BatchProcessor {
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 1
	}
	return &BatchProcessor{
		processor: processor,
		config:    config,
		log:       log,
	}
}

// Start consumes envelopes until the input closes or ctx is cancelled
func (b *BatchProcessor) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(b.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, b.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			b.log.Info("Batch processor shutting down")
			if len(batch) > 0 {
				// processing stops with ctx; leftover messages are redelivered
				b.nackAll(context.WithoutCancel(ctx), batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				b.log.Info("Batch processor input channel closed")
				if len(batch) > 0 {
					b.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= b.config.MaxBatchSize {
				b.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, b.config.MaxBatchSize)
				ticker.Reset(b.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, b.config.MaxBatchSize)
			}
		}
	}
}

// processBatch attributes every conversion of the batch with bounded
// concurrency. Each envelope is acked or nacked on its own outcome.
func (b *BatchProcessor) processBatch(ctx context.Context, envelopes []*Envelope) {
	var g errgroup.Group
	g.SetLimit(b.config.MaxConcurrency)

	for _, env := range envelopes {
		g.Go(func() error {
			b.processOne(ctx, env)
			return nil
		})
	}
	_ = g.Wait()

	b.log.Info("Processed conversion batch", zap.Int("count", len(envelopes)))
}

func (b *BatchProcessor) processOne(ctx context.Context, env *Envelope) {
	log := b.log.With(
		zap.String("message_id", env.MessageID),
		zap.String("conversion_id", env.Event.ConversionID))

	err := b.processor.Process(ctx, env.Event)
	switch {
	case err == nil:
		if err := env.Ack(ctx); err != nil {
			log.Error("Failed to ack envelope", zap.Error(err))
		}
	case domain.IsValidation(err):
		log.Warn("Dropping invalid conversion", zap.Error(err))
		if err := env.Ack(ctx); err != nil {
			log.Error("Failed to ack envelope", zap.Error(err))
		}
	default:
		log.Error("Failed to process conversion, leaving it for redelivery", zap.Error(err))
		if err := env.Nack(context.WithoutCancel(ctx)); err != nil {
			log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}

// nackAll hands every envelope back to the queue
func (b *BatchProcessor) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			b.log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}
