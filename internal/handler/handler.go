package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/BarkinBalci/attribution-service/docs"
	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
	"github.com/BarkinBalci/attribution-service/internal/service"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is a named dependency probe reported by /health
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	touchpointService service.TouchpointServicer
	journeyService    service.JourneyServicer
	conversionService service.ConversionServicer
	checks            []HealthCheck
	router            *gin.Engine
	log               *zap.Logger
}

func NewHandler(
	touchpointService service.TouchpointServicer,
	journeyService service.JourneyServicer,
	conversionService service.ConversionServicer,
	log *zap.Logger,
	checks ...HealthCheck,
) *Handler {
	h := &Handler{
		touchpointService: touchpointService,
		journeyService:    journeyService,
		conversionService: conversionService,
		checks:            checks,
		router:            gin.Default(),
		log:               log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/touchpoints", h.ingestTouchpoint)
	h.router.POST("/touchpoints/bulk", h.ingestTouchpointsBulk)
	h.router.GET("/customers/:customer_id/touchpoints", h.listTouchpoints)
	h.router.GET("/journeys/:customer_id", h.getJourney)
	h.router.POST("/conversions", h.publishConversion)
	h.router.GET("/conversions/:conversion_id/attribution", h.getAttribution)
	h.router.GET("/attribution/preview", h.previewAttribution)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// writeError maps service errors onto HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, attribution.ErrUnknownModel):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "configuration_error",
			Message: err.Error(),
		})
	case domain.IsStorage(err):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "storage_error",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check that the service and its stores are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := gin.H{"status": "ok"}
	code := http.StatusOK
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.log.Warn("Health check failed", zap.String("component", check.Name), zap.Error(err))
			status[check.Name] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[check.Name] = "ok"
	}

	c.JSON(code, status)
}

// ingestTouchpoint handles POST /touchpoints
// @Summary Ingest a touchpoint
// @Description Validate, enrich and store a single touchpoint and append it to the customer's journey
// @Tags touchpoints
// @Accept json
// @Produce json
// @Param touchpoint body dto.IngestTouchpointRequest true "Touchpoint data"
// @Success 201 {object} dto.IngestTouchpointResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /touchpoints [post]
func (h *Handler) ingestTouchpoint(c *gin.Context) {
	var req dto.IngestTouchpointRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid touchpoint request", zap.Error(err))
		bindError(c, err)
		return
	}

	raw := toRawTouchpoint(&req, c.ClientIP(), c.Request.UserAgent())
	touchpointID, err := h.touchpointService.Ingest(c.Request.Context(), &raw)
	if err != nil {
		h.log.Error("Failed to ingest touchpoint",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
			zap.String("channel", req.Channel))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IngestTouchpointResponse{
		TouchpointID: touchpointID,
		Status:       "created",
	})
}

// ingestTouchpointsBulk handles POST /touchpoints/bulk
// @Summary Ingest multiple touchpoints
// @Description Ingest up to 1000 touchpoints, reporting rejected items by index
// @Tags touchpoints
// @Accept json
// @Produce json
// @Param touchpoints body dto.IngestTouchpointsBulkRequest true "Bulk touchpoint data"
// @Success 202 {object} dto.IngestTouchpointsBulkResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /touchpoints/bulk [post]
func (h *Handler) ingestTouchpointsBulk(c *gin.Context) {
	var bulkRequest dto.IngestTouchpointsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk touchpoint request", zap.Error(err))
		bindError(c, err)
		return
	}

	remoteAddr, userAgent := c.ClientIP(), c.Request.UserAgent()
	raws := make([]domain.RawTouchpoint, len(bulkRequest.Touchpoints))
	for i := range bulkRequest.Touchpoints {
		raws[i] = toRawTouchpoint(&bulkRequest.Touchpoints[i], remoteAddr, userAgent)
	}

	ids, failed := h.touchpointService.IngestBulk(c.Request.Context(), raws)

	itemErrors := make([]dto.BulkItemError, len(failed))
	for i, f := range failed {
		itemErrors[i] = dto.BulkItemError{Index: f.Index, Message: f.Err.Error()}
	}

	h.log.Info("Bulk touchpoints processed",
		zap.Int("accepted", len(ids)),
		zap.Int("rejected", len(failed)),
		zap.Int("total", len(raws)))

	c.JSON(http.StatusAccepted, dto.IngestTouchpointsBulkResponse{
		Accepted:      len(ids),
		Rejected:      len(failed),
		TouchpointIDs: ids,
		Errors:        itemErrors,
	})
}

// listTouchpoints handles GET /customers/:customer_id/touchpoints
// @Summary List a customer's touchpoints
// @Description Read the touchpoint log of a customer in creation order
// @Tags touchpoints
// @Produce json
// @Param customer_id path string true "Customer ID" example:"user_123"
// @Param category query string false "Funnel category" Enums(awareness, consideration, conversion, retention, other)
// @Param from query int false "Start of creation range (Unix epoch)" example:"1723475612"
// @Param to query int false "End of creation range (Unix epoch)" example:"1723562012"
// @Param limit query int false "Maximum touchpoints to return (1-1000)" example:"100"
// @Success 200 {object} dto.ListTouchpointsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /customers/{customer_id}/touchpoints [get]
func (h *Handler) listTouchpoints(c *gin.Context) {
	var req dto.ListTouchpointsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid touchpoint query", zap.Error(err))
		bindError(c, err)
		return
	}

	customerID := c.Param("customer_id")
	query := domain.TouchpointQuery{
		CustomerID: customerID,
		Category:   domain.Category(req.Category),
		Limit:      req.Limit,
	}
	if req.From > 0 {
		query.From = time.Unix(req.From, 0).UTC()
	}
	if req.To > 0 {
		query.To = time.Unix(req.To, 0).UTC()
	}

	tps, err := h.touchpointService.ListTouchpoints(c.Request.Context(), query)
	if err != nil {
		h.log.Error("Failed to list touchpoints",
			zap.Error(err),
			zap.String("customer_id", customerID))
		h.writeError(c, err)
		return
	}

	data := make([]dto.TouchpointData, len(tps))
	for i := range tps {
		data[i] = toTouchpointData(&tps[i])
	}

	c.JSON(http.StatusOK, dto.ListTouchpointsResponse{
		CustomerID:  customerID,
		Count:       len(data),
		Touchpoints: data,
	})
}

// getJourney handles GET /journeys/:customer_id
// @Summary Get a customer journey
// @Description Read the journey state of a customer together with its derived metrics
// @Tags journeys
// @Produce json
// @Param customer_id path string true "Customer ID" example:"user_123"
// @Success 200 {object} dto.JourneyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /journeys/{customer_id} [get]
func (h *Handler) getJourney(c *gin.Context) {
	customerID := c.Param("customer_id")

	j, metrics, err := h.journeyService.Metrics(c.Request.Context(), customerID)
	if err != nil {
		h.log.Error("Failed to get journey",
			zap.Error(err),
			zap.String("customer_id", customerID))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toJourneyResponse(j, metrics))
}

// publishConversion handles POST /conversions
// @Summary Publish a conversion
// @Description Queue a "conversion completed" notification for attribution
// @Tags conversions
// @Accept json
// @Produce json
// @Param conversion body dto.PublishConversionRequest true "Conversion data"
// @Success 202 {object} dto.PublishConversionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /conversions [post]
func (h *Handler) publishConversion(c *gin.Context) {
	var req dto.PublishConversionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid conversion request",
			zap.Error(err),
			zap.String("conversion_id", req.ConversionID))
		bindError(c, err)
		return
	}

	event := &domain.ConversionEvent{
		ConversionID:    req.ConversionID,
		CustomerID:      req.CustomerID,
		ConversionValue: req.ConversionValue,
		ConversionDate:  req.ConversionDate,
	}
	if err := h.conversionService.Publish(c.Request.Context(), event); err != nil {
		h.log.Error("Failed to publish conversion",
			zap.Error(err),
			zap.String("conversion_id", req.ConversionID),
			zap.String("customer_id", req.CustomerID))
		h.writeError(c, err)
		return
	}

	h.log.Info("Conversion accepted",
		zap.String("conversion_id", event.ConversionID),
		zap.String("customer_id", event.CustomerID))

	c.JSON(http.StatusAccepted, dto.PublishConversionResponse{
		ConversionID: event.ConversionID,
		Status:       "accepted",
	})
}

// getAttribution handles GET /conversions/:conversion_id/attribution
// @Summary Get attribution results
// @Description Read every recorded model result of a conversion
// @Tags attribution
// @Produce json
// @Param conversion_id path string true "Conversion ID" example:"conv_789"
// @Success 200 {object} dto.ConversionAttributionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /conversions/{conversion_id}/attribution [get]
func (h *Handler) getAttribution(c *gin.Context) {
	conversionID := c.Param("conversion_id")

	results, err := h.conversionService.Attribution(c.Request.Context(), conversionID)
	if err != nil {
		h.log.Error("Failed to get attribution",
			zap.Error(err),
			zap.String("conversion_id", conversionID))
		h.writeError(c, err)
		return
	}

	if len(results) == 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "no attribution recorded for conversion " + conversionID,
		})
		return
	}

	data := make([]dto.AttributionResultData, len(results))
	for i := range results {
		data[i] = toAttributionResultData(&results[i])
	}

	c.JSON(http.StatusOK, dto.ConversionAttributionResponse{
		ConversionID: conversionID,
		Results:      data,
	})
}

// previewAttribution handles GET /attribution/preview
// @Summary Preview attribution
// @Description Compute one model over the customer's current journey without recording it
// @Tags attribution
// @Produce json
// @Param customer_id query string true "Customer ID" example:"user_123"
// @Param model query string true "Attribution model" Enums(first_touch, last_touch, linear, time_decay, u_shaped, w_shaped, data_driven)
// @Param conversion_value query number false "Value to distribute" example:"100"
// @Success 200 {object} dto.AttributionResultData
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /attribution/preview [get]
func (h *Handler) previewAttribution(c *gin.Context) {
	var req dto.PreviewAttributionRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid preview request", zap.Error(err))
		bindError(c, err)
		return
	}

	result, err := h.conversionService.Preview(c.Request.Context(), req.CustomerID, domain.ModelKey(req.Model), req.ConversionValue)
	if err != nil {
		h.log.Warn("Failed to preview attribution",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
			zap.String("model", req.Model))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAttributionResultData(result))
}
