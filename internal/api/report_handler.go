package api

import (
	"net/http"

	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// MemberStats godoc
// @Summary Member statistics
// @Description Total members, members with a visit this month and members who joined this month.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MemberStats
// @Router /reports/members [get]
func (h *ReportHandler) MemberStats(c *gin.Context) {
	stats, err := h.reportService.MemberStats(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GymDashboard godoc
// @Summary Gym dashboard
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.GymDashboard
// @Router /reports/dashboard [get]
func (h *ReportHandler) GymDashboard(c *gin.Context) {
	dashboard, err := h.reportService.GymDashboard(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
