package services

import (
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/config"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Income  *IncomeService
	Expense *ExpenseService
	Receipt *ReceiptService
	Report  *ReportService
	Export  *ExportService
	Audit   *AuditService
	Email   *EmailService
	Image   *ImageService
	Job     *JobService
}

// Dependencies are the collaborators NewServices wires together
type Dependencies struct {
	Repos    *repository.Repositories
	UoW      repository.UnitOfWork
	Counter  repository.SequenceCounter
	Renderer DocumentRenderer
	Worker   *jobs.Worker
	Storage  *storage.LocalStorage
	Config   *config.Config
	Clock    clock.Clock
}

// NewServices creates all service instances
func NewServices(deps Dependencies) *Services {
	repos, cfg := deps.Repos, deps.Config

	auditSvc := NewAuditService(repos.Audit)
	imageSvc := NewImageService(deps.Storage)
	emailSvc := NewEmailService(cfg)
	reportSvc := NewReportService(repos.Income, repos.Expense, repos.Summary, deps.Clock, cfg.SummaryCacheTTL)
	receiptSvc := NewReceiptService(repos.Receipt, repos.Income, deps.Counter, deps.Renderer, auditSvc, deps.Clock, ReceiptOptions{
		MaxRetries:   cfg.ReceiptMaxRetries,
		BusinessName: cfg.ReceiptBusinessName,
		TaxID:        cfg.ReceiptBusinessTaxID,
	})

	return &Services{
		Income:  NewIncomeService(repos.Income, deps.UoW, auditSvc, deps.Clock),
		Expense: NewExpenseService(repos.Expense, deps.UoW, auditSvc, imageSvc, deps.Storage, deps.Worker, deps.Clock),
		Receipt: receiptSvc,
		Report:  reportSvc,
		Export:  NewExportService(reportSvc),
		Audit:   auditSvc,
		Email:   emailSvc,
		Image:   imageSvc,
		Job:     NewJobService(deps.Worker, reportSvc, emailSvc, deps.Clock),
	}
}
