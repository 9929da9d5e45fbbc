package alert

import (
	"log/slog"
	"net/http"

	"agroalert/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the alert domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new alert handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RunWeatherAlerts handles POST /api/v1/alerts/weather/run
// Invoked by the external cron scheduler; runs the full weather dispatch
// synchronously and returns the aggregate report.
func (h *Handler) RunWeatherAlerts(c *gin.Context) {
	resp, err := h.service.DispatchWeather(c.Request.Context())
	if err != nil {
		slog.Error("weather alert run failed", "error", err)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// RunPriceAlerts handles POST /api/v1/alerts/price/run
func (h *Handler) RunPriceAlerts(c *gin.Context) {
	resp, err := h.service.DispatchPrice(c.Request.Context())
	if err != nil {
		slog.Error("price alert run failed", "error", err)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// SendWelcome handles POST /api/v1/emails/welcome
// Enqueues a welcome email for async processing and returns 202 Accepted.
func (h *Handler) SendWelcome(c *gin.Context) {
	var req WelcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.EnqueueWelcome(c.Request.Context(), &req)
	if err != nil {
		slog.Error("enqueue welcome email failed", "error", err, "user_id", req.UserID, "to", req.Email)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// ResendWelcome handles POST /api/v1/emails/welcome/resend
// Looks the farmer up by ID and enqueues the welcome email again.
func (h *Handler) ResendWelcome(c *gin.Context) {
	var req ResendWelcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.ResendWelcome(c.Request.Context(), req.UserID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusAccepted, resp)
}

// GetDelivery handles GET /api/v1/deliveries/:id
func (h *Handler) GetDelivery(c *gin.Context) {
	id := c.Param("id")

	delivery, err := h.service.GetDelivery(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, delivery)
}

// ListDeliveries handles GET /api/v1/deliveries
func (h *Handler) ListDeliveries(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// RegisterRoutes registers alert routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/alerts/weather/run", h.RunWeatherAlerts)
	rg.POST("/alerts/price/run", h.RunPriceAlerts)
	rg.POST("/emails/welcome", h.SendWelcome)
	rg.POST("/emails/welcome/resend", h.ResendWelcome)
	rg.GET("/deliveries", h.ListDeliveries)
	rg.GET("/deliveries/:id", h.GetDelivery)
}
