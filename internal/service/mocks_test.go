package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

// MockTouchpointRepository is a mock implementation of repository.TouchpointRepository
type MockTouchpointRepository struct {
	mock.Mock
}

func (m *MockTouchpointRepository) Insert(ctx context.Context, tp *domain.Touchpoint) error {
	args := m.Called(ctx, tp)
	return args.Error(0)
}

func (m *MockTouchpointRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Touchpoint, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Touchpoint), args.Error(1)
}

func (m *MockTouchpointRepository) List(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Touchpoint), args.Error(1)
}

func (m *MockTouchpointRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTouchpointRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockJourneyStore is a mock implementation of JourneyStore
type MockJourneyStore struct {
	mock.Mock
}

func (m *MockJourneyStore) Get(ctx context.Context, customerID string) (*domain.Journey, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockJourneyStore) AppendTouchpoint(ctx context.Context, customerID, touchpointID string) (*domain.Journey, error) {
	args := m.Called(ctx, customerID, touchpointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockJourneyStore) ApplyConversion(ctx context.Context, customerID string, value float64) (*domain.Journey, error) {
	args := m.Called(ctx, customerID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

// MockClaims is a mock implementation of idempotency.Store
type MockClaims struct {
	mock.Mock
}

func (m *MockClaims) Claim(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockClaims) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockConversionPublisher is a mock implementation of queue.ConversionPublisher
type MockConversionPublisher struct {
	mock.Mock
}

func (m *MockConversionPublisher) PublishConversion(ctx context.Context, event *domain.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, result *domain.AttributionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockRecorder) Get(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	args := m.Called(ctx, conversionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttributionResult), args.Error(1)
}
