package handler

import (
	"net/http"

	"occ-api/internal/middleware"
	"occ-api/internal/model"
	"occ-api/internal/service"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/statistics")
	{
		statsGroup.GET("/dashboard", middleware.RequirePermission(model.PermDashboardRead), h.GetDashboard)
	}
}

// @Summary      Get Dashboard Statistics
// @Description  Client, report and post counts, best-regime distribution, average savings and reports per month over the last 12 months
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Router       /statistics/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.statisticsService.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
