package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/queue"
)

const (
	pipelineBuffer     = 100
	retryVisibilitySec = 10
)

// Consumer orchestrates a pipeline of stages to process conversion messages
type Consumer struct {
	receiver  *Receiver
	parser    *ParserStage
	processor *BatchProcessor
}

// NewConsumer creates a new consumer with a pipeline architecture
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, processor ConversionProcessor, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		ErrorBackoff:    time.Second,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONConversionParser(), retryVisibilitySec, log)

	batchProcessor := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   cfg.Consumer.BatchSizeMax,
		FlushTimeout:   time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
		MaxConcurrency: cfg.Consumer.MaxConcurrency,
	}, log)

	return &Consumer{
		receiver:  receiver,
		parser:    parser,
		processor: batchProcessor,
	}
}

// Start runs the pipeline until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, pipelineBuffer)
	envelopeChan := make(chan *Envelope, pipelineBuffer)

	var wg sync.WaitGroup
	wg.Add(3)

	// Stage 1: Receive messages from SQS
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into envelopes
	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Attribute conversions and ack/nack
	go func() {
		defer wg.Done()
		c.processor.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
