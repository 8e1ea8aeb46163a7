package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

const (
	testTimestamp int64 = 1766702551
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockTouchpointService is a mock implementation of service.TouchpointServicer
type MockTouchpointService struct {
	mock.Mock
}

func (m *MockTouchpointService) Ingest(ctx context.Context, raw *domain.RawTouchpoint) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

func (m *MockTouchpointService) IngestBulk(ctx context.Context, raws []domain.RawTouchpoint) ([]string, []service.BulkError) {
	args := m.Called(ctx, raws)
	var failed []service.BulkError
	if args.Get(1) != nil {
		failed = args.Get(1).([]service.BulkError)
	}
	return args.Get(0).([]string), failed
}

func (m *MockTouchpointService) ListTouchpoints(ctx context.Context, query domain.TouchpointQuery) ([]domain.Touchpoint, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Touchpoint), args.Error(1)
}

// MockJourneyService is a mock implementation of service.JourneyServicer
type MockJourneyService struct {
	mock.Mock
}

func (m *MockJourneyService) Metrics(ctx context.Context, customerID string) (*domain.Journey, domain.JourneyMetrics, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, domain.JourneyMetrics{}, args.Error(2)
	}
	return args.Get(0).(*domain.Journey), args.Get(1).(domain.JourneyMetrics), args.Error(2)
}

// MockConversionService is a mock implementation of service.ConversionServicer
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Publish(ctx context.Context, event *domain.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockConversionService) Process(ctx context.Context, event *domain.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockConversionService) Attribution(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	args := m.Called(ctx, conversionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttributionResult), args.Error(1)
}

func (m *MockConversionService) Preview(ctx context.Context, customerID string, model domain.ModelKey, value float64) (*domain.AttributionResult, error) {
	args := m.Called(ctx, customerID, model, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttributionResult), args.Error(1)
}

type mocks struct {
	touchpoints *MockTouchpointService
	journeys    *MockJourneyService
	conversions *MockConversionService
}

func newTestHandler(checks ...HealthCheck) (*Handler, mocks) {
	m := mocks{
		touchpoints: new(MockTouchpointService),
		journeys:    new(MockJourneyService),
		conversions: new(MockConversionService),
	}
	return NewHandler(m.touchpoints, m.journeys, m.conversions, zap.NewNop(), checks...), m
}

func doJSON(h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandler_HealthCheck(t *testing.T) {
	handler, _ := newTestHandler(HealthCheck{Name: "clickhouse", Ping: func(context.Context) error { return nil }})

	w := doJSON(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "ok", response["clickhouse"])
}

func TestHandler_HealthCheck_Degraded(t *testing.T) {
	handler, _ := newTestHandler(
		HealthCheck{Name: "clickhouse", Ping: func(context.Context) error { return nil }},
		HealthCheck{Name: "postgres", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	w := doJSON(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response["status"])
	assert.Equal(t, "connection refused", response["postgres"])
}

func TestHandler_IngestTouchpoint_Success(t *testing.T) {
	handler, m := newTestHandler()

	req := dto.IngestTouchpointRequest{
		EventID:    "evt_1",
		CustomerID: "user_123",
		Type:       "ad_click",
		Channel:    "paid_search",
		Timestamp:  testTimestamp,
		Engagement: dto.EngagementRequest{TimeOnPage: 30, ScrollDepth: 50, ClickCount: 2, InteractionType: "active"},
		UTM:        dto.UTMRequest{Source: "google"},
	}

	m.touchpoints.On("Ingest", mock.Anything, mock.MatchedBy(func(raw *domain.RawTouchpoint) bool {
		return raw.EventID == "evt_1" &&
			raw.CustomerID == "user_123" &&
			raw.Engagement.ClickCount == 2 &&
			raw.UTM.Source == "google" &&
			raw.RemoteAddr != ""
	})).Return("tp_abc", nil)

	w := doJSON(handler, http.MethodPost, "/touchpoints", req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response dto.IngestTouchpointResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "tp_abc", response.TouchpointID)
	assert.Equal(t, "created", response.Status)
	m.touchpoints.AssertExpectations(t)
}

func TestHandler_IngestTouchpoint_InvalidJSON(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/touchpoints", []byte(`{"type": "visit", invalid}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	m.touchpoints.AssertNotCalled(t, "Ingest")
}

func TestHandler_IngestTouchpoint_OutOfRangeEngagement(t *testing.T) {
	handler, m := newTestHandler()

	body := []byte(`{"type":"visit","channel":"direct","timestamp":1766702551,"engagement":{"scroll_depth":150}}`)
	w := doJSON(handler, http.MethodPost, "/touchpoints", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.touchpoints.AssertNotCalled(t, "Ingest")
}

func TestHandler_IngestTouchpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", &domain.ValidationError{Field: "channel"}, http.StatusBadRequest, "validation_error"},
		{"storage", domain.NewStorageError("insert touchpoint", errors.New("timeout")), http.StatusServiceUnavailable, "storage_error"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := newTestHandler()
			m.touchpoints.On("Ingest", mock.Anything, mock.Anything).Return("", tt.err)

			w := doJSON(handler, http.MethodPost, "/touchpoints", dto.IngestTouchpointRequest{Type: "visit"})

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, w).Error)
		})
	}
}

func TestHandler_IngestTouchpointsBulk_PartialSuccess(t *testing.T) {
	handler, m := newTestHandler()

	req := dto.IngestTouchpointsBulkRequest{
		Touchpoints: []dto.IngestTouchpointRequest{
			{CustomerID: "u1", Type: "visit", Channel: "direct", Timestamp: testTimestamp},
			{CustomerID: "u1", Type: "visit", Timestamp: testTimestamp},
		},
	}

	m.touchpoints.On("IngestBulk", mock.Anything, mock.MatchedBy(func(raws []domain.RawTouchpoint) bool {
		return len(raws) == 2
	})).Return([]string{"tp_1"}, []service.BulkError{{Index: 1, Err: &domain.ValidationError{Field: "channel"}}})

	w := doJSON(handler, http.MethodPost, "/touchpoints/bulk", req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.IngestTouchpointsBulkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Accepted)
	assert.Equal(t, 1, response.Rejected)
	assert.Equal(t, []string{"tp_1"}, response.TouchpointIDs)
	require.Len(t, response.Errors, 1)
	assert.Equal(t, 1, response.Errors[0].Index)
	assert.Equal(t, "channel is required", response.Errors[0].Message)
}

func TestHandler_IngestTouchpointsBulk_EmptyTouchpoints(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/touchpoints/bulk", dto.IngestTouchpointsBulkRequest{Touchpoints: []dto.IngestTouchpointRequest{}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	m.touchpoints.AssertNotCalled(t, "IngestBulk")
}

func TestHandler_ListTouchpoints(t *testing.T) {
	handler, m := newTestHandler()

	created := time.Unix(testTimestamp, 0).UTC()
	m.touchpoints.On("ListTouchpoints", mock.Anything, domain.TouchpointQuery{
		CustomerID: "user_123",
		Category:   domain.CategoryAwareness,
		From:       time.Unix(1700000000, 0).UTC(),
		Limit:      10,
	}).Return([]domain.Touchpoint{{
		ID:         "tp_1",
		CustomerID: "user_123",
		Channel:    "paid_search",
		Category:   domain.CategoryAwareness,
		Engagement: domain.Engagement{Score: 42},
		CreatedAt:  created,
	}}, nil)

	w := doJSON(handler, http.MethodGet, "/customers/user_123/touchpoints?category=awareness&from=1700000000&limit=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListTouchpointsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "user_123", response.CustomerID)
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "tp_1", response.Touchpoints[0].TouchpointID)
	assert.Equal(t, 42, response.Touchpoints[0].Engagement.Score)
	assert.True(t, created.Equal(response.Touchpoints[0].CreatedAt))
	m.touchpoints.AssertExpectations(t)
}

func TestHandler_ListTouchpoints_InvalidLimit(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/customers/user_123/touchpoints?limit=5000", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.touchpoints.AssertNotCalled(t, "ListTouchpoints")
}

func TestHandler_GetJourney(t *testing.T) {
	handler, m := newTestHandler()

	now := time.Unix(testTimestamp, 0).UTC()
	j := domain.NewJourney("user_123", 50, now)
	j.AppendTouchpoint("tp_1", now)
	j.AppendTouchpoint("tp_2", now.Add(time.Hour))
	j.ApplyConversion(100, now.Add(2*time.Hour))

	metrics := domain.JourneyMetrics{
		TouchpointCount:        2,
		Duration:               time.Hour,
		ConversionRate:         0.5,
		AverageTouchpointValue: 50,
	}
	m.journeys.On("Metrics", mock.Anything, "user_123").Return(j, metrics, nil)

	w := doJSON(handler, http.MethodGet, "/journeys/user_123", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.JourneyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"tp_1", "tp_2"}, response.Touchpoints)
	assert.Equal(t, "tp_1", response.FirstTouchpoint)
	assert.Equal(t, "tp_2", response.LastTouchpoint)
	assert.Equal(t, "conversion", response.Stage)
	assert.Equal(t, int64(1), response.ConversionCount)
	assert.InDelta(t, 3600.0, response.Metrics.DurationSeconds, 1e-9)
	assert.InDelta(t, 0.5, response.Metrics.ConversionRate, 1e-9)
}

func TestHandler_GetJourney_StorageError(t *testing.T) {
	handler, m := newTestHandler()

	m.journeys.On("Metrics", mock.Anything, "user_123").
		Return(nil, domain.JourneyMetrics{}, domain.NewStorageError("load journey", errors.New("pool closed")))

	w := doJSON(handler, http.MethodGet, "/journeys/user_123", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "storage_error", decodeError(t, w).Error)
}

func TestHandler_PublishConversion_Success(t *testing.T) {
	handler, m := newTestHandler()

	req := dto.PublishConversionRequest{
		ConversionID:    "conv_1",
		CustomerID:      "user_123",
		ConversionValue: 100,
	}

	m.conversions.On("Publish", mock.Anything, &domain.ConversionEvent{
		ConversionID:    "conv_1",
		CustomerID:      "user_123",
		ConversionValue: 100,
	}).Return(nil)

	w := doJSON(handler, http.MethodPost, "/conversions", req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response dto.PublishConversionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "conv_1", response.ConversionID)
	assert.Equal(t, "accepted", response.Status)
	m.conversions.AssertExpectations(t)
}

func TestHandler_PublishConversion_MissingRequiredFields(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/conversions", dto.PublishConversionRequest{ConversionValue: 10})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	m.conversions.AssertNotCalled(t, "Publish")
}

func TestHandler_PublishConversion_QueueUnavailable(t *testing.T) {
	handler, m := newTestHandler()

	m.conversions.On("Publish", mock.Anything, mock.Anything).
		Return(domain.NewStorageError("publish conversion", errors.New("sqs down")))

	w := doJSON(handler, http.MethodPost, "/conversions", dto.PublishConversionRequest{ConversionID: "c", CustomerID: "u"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_GetAttribution(t *testing.T) {
	handler, m := newTestHandler()

	m.conversions.On("Attribution", mock.Anything, "conv_1").Return([]domain.AttributionResult{{
		ConversionID:     "conv_1",
		CustomerID:       "user_123",
		Model:            domain.ModelLinear,
		ConversionValue:  100,
		TouchpointIDs:    []string{"tp_1", "tp_2"},
		Channels:         []string{"email", "direct"},
		Weights:          []float64{0.5, 0.5},
		AttributedValues: []float64{50, 50},
	}}, nil)

	w := doJSON(handler, http.MethodGet, "/conversions/conv_1/attribution", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ConversionAttributionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Results, 1)
	result := response.Results[0]
	assert.Equal(t, "linear", result.Model)
	require.Len(t, result.Touchpoints, 2)
	assert.Equal(t, "direct", result.Touchpoints[1].Channel)
	assert.InDelta(t, 50.0, result.Touchpoints[1].AttributedValue, 1e-9)
}

func TestHandler_GetAttribution_NotFound(t *testing.T) {
	handler, m := newTestHandler()

	m.conversions.On("Attribution", mock.Anything, "conv_missing").Return([]domain.AttributionResult{}, nil)

	w := doJSON(handler, http.MethodGet, "/conversions/conv_missing/attribution", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestHandler_PreviewAttribution(t *testing.T) {
	handler, m := newTestHandler()

	m.conversions.On("Preview", mock.Anything, "user_123", domain.ModelUShaped, 200.0).Return(&domain.AttributionResult{
		CustomerID:       "user_123",
		Model:            domain.ModelUShaped,
		ConversionValue:  200,
		TouchpointIDs:    []string{"tp_1", "tp_2", "tp_3"},
		Channels:         []string{"social_media", "email", "direct"},
		Weights:          []float64{0.4, 0.2, 0.4},
		AttributedValues: []float64{80, 40, 80},
	}, nil)

	w := doJSON(handler, http.MethodGet, "/attribution/preview?customer_id=user_123&model=u_shaped&conversion_value=200", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.AttributionResultData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.ConversionID)
	require.Len(t, response.Touchpoints, 3)
	assert.InDelta(t, 40.0, response.Touchpoints[1].AttributedValue, 1e-9)
}

func TestHandler_PreviewAttribution_UnknownModel(t *testing.T) {
	handler, m := newTestHandler()

	m.conversions.On("Preview", mock.Anything, "user_123", domain.ModelKey("markov"), 0.0).
		Return(nil, attribution.ErrUnknownModel)

	w := doJSON(handler, http.MethodGet, "/attribution/preview?customer_id=user_123&model=markov", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "configuration_error", decodeError(t, w).Error)
}

func TestHandler_PreviewAttribution_MissingCustomer(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/attribution/preview?model=linear", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.conversions.AssertNotCalled(t, "Preview")
}
