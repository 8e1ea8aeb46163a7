package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockConversionProcessor is a mock implementation of ConversionProcessor
type MockConversionProcessor struct {
	mock.Mock
}

func (m *MockConversionProcessor) Process(ctx context.Context, event *domain.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type ackCounter struct {
	acks  atomic.Int32
	nacks atomic.Int32
}

func (c *ackCounter) envelope(conversionID string) *Envelope {
	return NewEnvelope(
		&domain.ConversionEvent{ConversionID: conversionID, CustomerID: "user_1"},
		"msg-"+conversionID,
		func(context.Context) error { c.acks.Add(1); return nil },
		func(context.Context) error { c.nacks.Add(1); return nil },
	)
}

func byConversion(id string) interface{} {
	return mock.MatchedBy(func(e *domain.ConversionEvent) bool { return e.ConversionID == id })
}

func TestBatchProcessor_Start_BatchSizeThreshold(t *testing.T) {
	processor := new(MockConversionProcessor)
	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   3,
		FlushTimeout:   10 * time.Second,
		MaxConcurrency: 2,
	}, zap.NewNop())

	processor.On("Process", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go bp.Start(ctx, in)

	in <- counter.envelope("1")
	in <- counter.envelope("2")
	in <- counter.envelope("3")

	assert.Eventually(t, func() bool { return counter.acks.Load() == 3 }, time.Second, 5*time.Millisecond)
	processor.AssertNumberOfCalls(t, "Process", 3)
}

func TestBatchProcessor_Start_TimeoutFlush(t *testing.T) {
	processor := new(MockConversionProcessor)
	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   10,
		FlushTimeout:   50 * time.Millisecond,
		MaxConcurrency: 4,
	}, zap.NewNop())

	processor.On("Process", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 5)
	go bp.Start(ctx, in)

	in <- counter.envelope("1")
	in <- counter.envelope("2")

	assert.Eventually(t, func() bool { return counter.acks.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBatchProcessor_Start_MixedOutcomes(t *testing.T) {
	processor := new(MockConversionProcessor)
	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   3,
		FlushTimeout:   10 * time.Second,
		MaxConcurrency: 3,
	}, zap.NewNop())

	processor.On("Process", mock.Anything, byConversion("ok")).Return(nil)
	processor.On("Process", mock.Anything, byConversion("invalid")).Return(&domain.ValidationError{Field: "customer_id"})
	processor.On("Process", mock.Anything, byConversion("down")).Return(domain.NewStorageError("save journey", errors.New("timeout")))

	in := make(chan *Envelope, 3)
	in <- counter.envelope("ok")
	in <- counter.envelope("invalid")
	in <- counter.envelope("down")
	close(in)

	bp.Start(context.Background(), in)

	// invalid conversions are dropped, storage failures are retried
	assert.Equal(t, int32(2), counter.acks.Load())
	assert.Equal(t, int32(1), counter.nacks.Load())
	processor.AssertExpectations(t)
}

func TestBatchProcessor_Start_InputClosedFlushesBatch(t *testing.T) {
	processor := new(MockConversionProcessor)
	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   10,
		FlushTimeout:   10 * time.Second,
		MaxConcurrency: 1,
	}, zap.NewNop())

	processor.On("Process", mock.Anything, mock.Anything).Return(nil)

	in := make(chan *Envelope, 2)
	in <- counter.envelope("1")
	close(in)

	bp.Start(context.Background(), in)

	assert.Equal(t, int32(1), counter.acks.Load())
}

func TestBatchProcessor_Start_ShutdownNacksPending(t *testing.T) {
	processor := new(MockConversionProcessor)
	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   10,
		FlushTimeout:   10 * time.Second,
		MaxConcurrency: 1,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan *Envelope, 2)
	done := make(chan struct{})
	go func() {
		bp.Start(ctx, in)
		close(done)
	}()

	in <- counter.envelope("1")
	in <- counter.envelope("2")
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("batch processor did not stop")
	}

	assert.Equal(t, int32(2), counter.nacks.Load())
	assert.Equal(t, int32(0), counter.acks.Load())
	processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestBatchProcessor_ConcurrencyLimit(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	processor := new(MockConversionProcessor)
	processor.On("Process", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
	}).Return(nil)

	counter := &ackCounter{}
	bp := NewBatchProcessor(processor, BatchProcessorConfig{
		MaxBatchSize:   8,
		FlushTimeout:   10 * time.Second,
		MaxConcurrency: 2,
	}, zap.NewNop())

	envelopes := make([]*Envelope, 8)
	for i := range envelopes {
		envelopes[i] = counter.envelope(string(rune('a' + i)))
	}

	bp.processBatch(context.Background(), envelopes)

	assert.Equal(t, int32(8), counter.acks.Load())
	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, 2, peak)
}
