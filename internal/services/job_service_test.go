package services

import (
	"context"
	"testing"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobTestService(t *testing.T, now time.Time) (*JobService, *memStore) {
	t.Helper()
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	store := newMemStore()
	clk := clock.Fixed{T: now}
	reportSvc := newReportTestService(store, now)
	return NewJobService(worker, reportSvc, NewEmailService(&config.Config{}), clk), store
}

func TestJobService_SendMonthlySummaryIfDue(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantSent string
	}{
		{"mid month does nothing", day(2025, 5, 15, 8), ""},
		{"first of month sends previous month", day(2025, 5, 1, 8), "2025-04"},
		{"first of january sends december", day(2025, 1, 1, 8), "2024-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newJobTestService(t, tt.now)

			require.NoError(t, svc.SendMonthlySummaryIfDue(context.Background()))
			assert.Equal(t, tt.wantSent, svc.lastSent)

			// a second tick the same day is a no-op
			require.NoError(t, svc.SendMonthlySummaryIfDue(context.Background()))
			assert.Equal(t, tt.wantSent, svc.lastSent)
		})
	}
}

func TestJobService_SendMonthlySummary_InvalidMonth(t *testing.T) {
	svc, _ := newJobTestService(t, day(2025, 5, 1, 8))

	err := svc.SendMonthlySummary(context.Background(), 2025, 0)
	require.NoError(t, err)

	err = svc.SendMonthlySummary(context.Background(), 2025, 14)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestJobService_StartRefreshesSummaries(t *testing.T) {
	svc, store := newJobTestService(t, day(2025, 5, 10, 8))
	svc.Start()

	assert.Eventually(t, func() bool {
		_, ran := svc.GetStatus().LastRun["refresh-summary-cache"]
		return ran
	}, 2*time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.summary, 4)
	assert.Zero(t, svc.GetStatus().FailedJobs)
}

func TestJobService_StartChecksMonthlyMailImmediately(t *testing.T) {
	svc, _ := newJobTestService(t, day(2025, 6, 1, 7))
	svc.Start()

	assert.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.lastSent == "2025-05"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJobService_QueueMonthlySummary(t *testing.T) {
	svc, _ := newJobTestService(t, day(2025, 5, 10, 8))

	require.NoError(t, svc.QueueMonthlySummary(2025, 4))
	assert.Eventually(t, func() bool {
		_, ran := svc.GetStatus().LastRun["monthly-summary-email"]
		return ran
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, KindValidation, KindOf(svc.QueueMonthlySummary(2025, 13)))
	assert.Equal(t, KindValidation, KindOf(svc.QueueMonthlySummary(1999, 1)))

	svc.worker.Shutdown()
	assert.Equal(t, KindInvalidState, KindOf(svc.QueueMonthlySummary(2025, 4)))
}
