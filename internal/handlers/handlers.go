package handlers

import (
	"time"

	"github.com/sjperalta/studio-finance-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Income  *IncomeHandler
	Expense *ExpenseHandler
	Receipt *ReceiptHandler
	Report  *ReportHandler
	Audit   *AuditHandler
	Job     *JobHandler
}

// NewHandlers creates all handler instances. loc is the business timezone
// date-only parameters are read in.
func NewHandlers(svcs *services.Services, loc *time.Location) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Income:  NewIncomeHandler(svcs.Income, loc),
		Expense: NewExpenseHandler(svcs.Expense, loc),
		Receipt: NewReceiptHandler(svcs.Receipt),
		Report:  NewReportHandler(svcs.Report, svcs.Export, loc),
		Audit:   NewAuditHandler(svcs.Audit),
		Job:     NewJobHandler(svcs.Job),
	}
}
