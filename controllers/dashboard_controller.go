package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/mediadesk/services"
	"github.com/cppla/mediadesk/utils"
)

// DashboardController serves the admin summary and the audit trail.
type DashboardController struct {
	metrics  *services.MetricsAggregator
	activity *services.ActivityRecorder
}

// NewDashboardController creates a new DashboardController instance.
func NewDashboardController(metrics *services.MetricsAggregator, activity *services.ActivityRecorder) *DashboardController {
	return &DashboardController{metrics: metrics, activity: activity}
}

// GetMetrics returns live totals, breakdowns and seven day histograms.
func (d *DashboardController) GetMetrics(ctx *gin.Context) {
	m, err := d.metrics.Collect(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to fetch metrics", err))
		return
	}
	utils.Success(ctx, m)
}

// GetActivityLog returns the most recent audit entries. limit defaults to 50, max 200.
func (d *DashboardController) GetActivityLog(ctx *gin.Context) {
	limit := clampLimit(ctx.Query("limit"), 50, 200)
	logs, err := d.activity.Recent(ctx.Request.Context(), limit)
	if err != nil {
		utils.Fail(ctx, utils.Upstream("Failed to fetch logs", err))
		return
	}
	utils.Success(ctx, gin.H{"logs": logs})
}
