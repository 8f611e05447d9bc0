package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
)

const (
	summaryRefreshInterval = time.Hour
	monthlyMailCheck       = 24 * time.Hour
)

type JobService struct {
	worker    *jobs.Worker
	reportSvc *ReportService
	emailSvc  *EmailService
	clock     clock.Clock

	mu       sync.Mutex
	lastSent string
}

func NewJobService(worker *jobs.Worker, reportSvc *ReportService, emailSvc *EmailService, clk clock.Clock) *JobService {
	return &JobService{
		worker:    worker,
		reportSvc: reportSvc,
		emailSvc:  emailSvc,
		clock:     clk,
	}
}

// Start registers the recurring finance jobs on the worker
func (s *JobService) Start() {
	s.worker.ScheduleEveryImmediate("refresh-summary-cache", summaryRefreshInterval, s.reportSvc.RefreshSummaryCache)
	s.worker.ScheduleEveryImmediate("monthly-summary-email", monthlyMailCheck, s.SendMonthlySummaryIfDue)
}

func (s *JobService) GetStatus() jobs.WorkerStats {
	return s.worker.GetStats()
}

// SendMonthlySummaryIfDue mails the previous month's summary on the first
// day of a month, once per month per process.
func (s *JobService) SendMonthlySummaryIfDue(ctx context.Context) error {
	now := s.clock.Now()
	if now.Day() != 1 {
		return nil
	}
	year, month := finance.PreviousMonth(now.Year(), now.Month())
	key := fmt.Sprintf("%04d-%02d", year, month)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent == key {
		return nil
	}
	if err := s.SendMonthlySummary(ctx, year, int(month)); err != nil {
		return err
	}
	s.lastSent = key
	return nil
}

// QueueMonthlySummary validates year/month and hands the mail to the worker
// pool. Failures after this point are logged by the worker.
func (s *JobService) QueueMonthlySummary(year, month int) error {
	if month < 0 || month > 12 {
		return validationError("month must be between 1 and 12")
	}
	if year != 0 {
		if err := validateYear(year); err != nil {
			return err
		}
	}
	err := s.worker.Enqueue("monthly-summary-email", func(ctx context.Context) error {
		return s.SendMonthlySummary(ctx, year, month)
	})
	if errors.Is(err, jobs.ErrStopped) {
		return &Error{Kind: KindInvalidState, Message: "server is shutting down", Err: err}
	}
	return err
}

// SendMonthlySummary compares year/month with the month before and mails it
func (s *JobService) SendMonthlySummary(ctx context.Context, year, month int) error {
	cmp, err := s.reportSvc.Comparison(ctx, ComparisonParams{Year: year, Month: month})
	if err != nil {
		return err
	}
	return s.emailSvc.SendMonthlySummary(ctx, cmp)
}
