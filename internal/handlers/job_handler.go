package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/studio-finance-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, last run per scheduled job)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// SendMonthlySummary queues the comparison mail of a month with the month before
// @Summary Send monthly summary email
// @Description Queues the monthly financial summary for the report recipients
// @Tags Jobs
// @Produce json
// @Param year query int false "Year, default current"
// @Param month query int false "Month 1-12, default current"
// @Security BearerAuth
// @Success 202 {object} map[string]interface{}
// @Router /jobs/monthly_summary [post]
func (h *JobHandler) SendMonthlySummary(c *gin.Context) {
	year, err := intParam(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}
	month, err := intParam(c, "month")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.jobService.QueueMonthlySummary(year, month); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "monthly summary queued"})
}
