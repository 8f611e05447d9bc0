package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
	"github.com/sjperalta/studio-finance-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobTestHandler(t *testing.T) (*JobHandler, *jobs.Worker) {
	t.Helper()
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	clk := clock.Fixed{T: time.Date(2025, 5, 10, 9, 0, 0, 0, ict)}
	reportSvc := services.NewReportService(&mockIncomeRepo{}, &mockExpenseRepo{}, nil, clk, time.Hour)
	jobSvc := services.NewJobService(worker, reportSvc, services.NewEmailService(&config.Config{}), clk)
	return NewJobHandler(jobSvc), worker
}

func TestJobHandler_SendMonthlySummary_RunsOnWorker(t *testing.T) {
	h, worker := newJobTestHandler(t)

	c, w := newTestContext("POST", "/jobs/monthly_summary?year=2025&month=4", nil)
	h.SendMonthlySummary(c)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "monthly summary queued")

	assert.Eventually(t, func() bool {
		_, ran := worker.GetStats().LastRun["monthly-summary-email"]
		return ran
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, worker.GetStats().FailedJobs)
}

func TestJobHandler_SendMonthlySummary_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		shutdown   bool
		wantStatus int
		wantKind   string
	}{
		{"month out of range", "/jobs/monthly_summary?month=13", false, http.StatusBadRequest, "validation"},
		{"year out of range", "/jobs/monthly_summary?year=1999&month=1", false, http.StatusBadRequest, "validation"},
		{"worker stopped", "/jobs/monthly_summary?year=2025&month=4", true, http.StatusUnprocessableEntity, "invalid_state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, worker := newJobTestHandler(t)
			if tt.shutdown {
				worker.Shutdown()
			}

			c, w := newTestContext("POST", tt.target, nil)
			h.SendMonthlySummary(c)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			kind, _ := errorBody(t, w)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
