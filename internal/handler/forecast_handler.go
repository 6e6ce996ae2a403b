package handler

import (
	"net/http"

	"aptracker/internal/middleware"
	"aptracker/internal/service"
	"aptracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type ForecastHandler struct {
	forecastService service.ForecastService
	auth            *middleware.Auth
}

func NewForecastHandler(forecastService service.ForecastService, auth *middleware.Auth) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService, auth: auth}
}

func (h *ForecastHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/forecast", h.auth.RequireRole(), h.GetForecast)
	router.GET("/api/dashboard", h.auth.RequireRole(), h.GetDashboard)
}

// GetForecast aggregates upcoming outflows into daily and monthly buckets
// @Summary      Cash-flow forecast
// @Description  Unpaid invoices bucketed by (planned date + delay_days), normalized to the reporting currency
// @Tags         forecast
// @Security     BearerAuth
// @Produce      json
// @Param        delay_days  query     int     false  "Shift every payment by N days"
// @Param        vendor_id   query     string  false  "Only this vendor"
// @Success      200         {object}  response.Response{data=service.ForecastResponse}
// @Failure      400         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/forecast [get]
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	var req service.ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	forecast, err := h.forecastService.Forecast(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, forecast))
}

// GetDashboard returns the headline payables figures
// @Summary      Dashboard summary
// @Tags         forecast
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/dashboard [get]
func (h *ForecastHandler) GetDashboard(c *gin.Context) {
	summary, err := h.forecastService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
