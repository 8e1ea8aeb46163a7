package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockMessageParser is a mock implementation of MessageParser
type MockMessageParser struct {
	mock.Mock
}

func (m *MockMessageParser) Parse(body []byte) (*domain.ConversionEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversionEvent), args.Error(1)
}

func collectEnvelopes(out <-chan *Envelope, timeout time.Duration) []*Envelope {
	var envelopes []*Envelope
	deadline := time.After(timeout)
	for {
		select {
		case env, ok := <-out:
			if !ok {
				return envelopes
			}
			envelopes = append(envelopes, env)
		case <-deadline:
			return envelopes
		}
	}
}

func TestParserStage_Start_Success(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 10, zap.NewNop())

	body := `{"conversion_id": "cv1", "customer_id": "user_1"}`
	event := &domain.ConversionEvent{ConversionID: "cv1", CustomerID: "user_1"}
	mockParser.On("Parse", []byte(body)).Return(event, nil)

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)
	go stage.Start(context.Background(), in, out)

	in <- conversionMessage("msg-1", body)
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	require.Len(t, envelopes, 1)
	assert.Equal(t, "cv1", envelopes[0].Event.ConversionID)
	assert.Equal(t, "msg-1", envelopes[0].MessageID)
	mockParser.AssertExpectations(t)
	mockConsumer.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
}

func TestParserStage_Envelope_AckDeletesMessage(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 10, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "receipt-msg-1"
	})).Return(&sqs.DeleteMessageOutput{}, nil)
	mockParser.On("Parse", mock.Anything).Return(&domain.ConversionEvent{ConversionID: "cv1"}, nil)

	env := stage.parseMessage(context.Background(), conversionMessage("msg-1", `{}`))
	require.NotNil(t, env)

	assert.NoError(t, env.Ack(context.Background()))
	mockConsumer.AssertExpectations(t)
}

func TestParserStage_Envelope_NackResetsVisibility(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 15, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("ChangeMessageVisibility", mock.Anything, mock.MatchedBy(func(in *sqs.ChangeMessageVisibilityInput) bool {
		return in.VisibilityTimeout == 15 && aws.ToString(in.ReceiptHandle) == "receipt-msg-1"
	})).Return(&sqs.ChangeMessageVisibilityOutput{}, nil)
	mockParser.On("Parse", mock.Anything).Return(&domain.ConversionEvent{ConversionID: "cv1"}, nil)

	env := stage.parseMessage(context.Background(), conversionMessage("msg-1", `{}`))
	require.NotNil(t, env)

	assert.NoError(t, env.Nack(context.Background()))
	mockConsumer.AssertExpectations(t)
	mockConsumer.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)
}

func TestParserStage_Start_MalformedMessage(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 10, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)
	mockParser.On("Parse", []byte(`{invalid json}`)).Return(nil, errors.New("invalid JSON format"))

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)
	go stage.Start(context.Background(), in, out)

	in <- conversionMessage("msg-1", `{invalid json}`)
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Empty(t, envelopes)
	mockParser.AssertExpectations(t)
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestParserStage_Start_DeleteMessageFailure(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 10, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(nil, errors.New("failed to delete message from SQS"))
	mockParser.On("Parse", []byte(`{invalid}`)).Return(nil, errors.New("invalid JSON"))

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)
	go stage.Start(context.Background(), in, out)

	in <- conversionMessage("msg-1", `{invalid}`)
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Empty(t, envelopes)
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestParserStage_Start_ContextCancellation(t *testing.T) {
	stage := NewParserStage(new(MockQueueConsumer), new(MockMessageParser), 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan *Envelope, 1)
	stage.Start(ctx, make(chan types.Message), out)

	_, ok := <-out
	assert.False(t, ok, "Output channel should be closed after context cancellation")
}

func TestParserStage_Start_MultipleMessages(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockMessageParser)
	stage := NewParserStage(mockConsumer, mockParser, 10, zap.NewNop())

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil).Maybe()

	mockParser.On("Parse", []byte(`{"conversion_id": "cv1"}`)).Return(&domain.ConversionEvent{ConversionID: "cv1"}, nil)
	mockParser.On("Parse", []byte(`{invalid}`)).Return(nil, errors.New("parse error"))
	mockParser.On("Parse", []byte(`{"conversion_id": "cv3"}`)).Return(&domain.ConversionEvent{ConversionID: "cv3"}, nil)

	in := make(chan types.Message, 3)
	out := make(chan *Envelope, 3)
	go stage.Start(context.Background(), in, out)

	in <- conversionMessage("msg-1", `{"conversion_id": "cv1"}`)
	in <- conversionMessage("msg-2", `{invalid}`)
	in <- conversionMessage("msg-3", `{"conversion_id": "cv3"}`)
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	require.Len(t, envelopes, 2)
	assert.Equal(t, "cv1", envelopes[0].Event.ConversionID)
	assert.Equal(t, "cv3", envelopes[1].Event.ConversionID)
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 1)
}
