package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/jobs"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/statemachine"
	"github.com/sjperalta/studio-finance-api/internal/storage"
	"gorm.io/gorm"
)

// ExpenseInput is a new expense, possibly recurring
type ExpenseInput struct {
	Amount          decimal.Decimal
	VATAmount       decimal.Decimal
	Description     string
	Category        models.ExpenseCategory
	ExpenseDate     time.Time
	PaymentMethod   models.PaymentMethod
	Vendor          *string
	IsRecurring     bool
	RecurringMonths int
}

// ExpenseUpdate holds the editable fields; nil leaves a field unchanged
type ExpenseUpdate struct {
	Amount        *decimal.Decimal
	VATAmount     *decimal.Decimal
	Description   *string
	Category      *models.ExpenseCategory
	ExpenseDate   *time.Time
	PaymentMethod *models.PaymentMethod
	Vendor        *string
}

// ExpenseCreated is the result of Create. Installments is empty unless the
// expense was split; Parent is then the first installment.
type ExpenseCreated struct {
	Parent       *models.ExpenseEntry  `json:"expense"`
	Installments []models.ExpenseEntry `json:"installments"`
}

type ExpenseService struct {
	repo     repository.ExpenseRepository
	uow      repository.UnitOfWork
	auditSvc *AuditService
	imageSvc *ImageService
	storage  *storage.LocalStorage
	worker   *jobs.Worker
	clock    clock.Clock
}

func NewExpenseService(
	repo repository.ExpenseRepository,
	uow repository.UnitOfWork,
	auditSvc *AuditService,
	imageSvc *ImageService,
	storage *storage.LocalStorage,
	worker *jobs.Worker,
	clk clock.Clock,
) *ExpenseService {
	return &ExpenseService{
		repo:     repo,
		uow:      uow,
		auditSvc: auditSvc,
		imageSvc: imageSvc,
		storage:  storage,
		worker:   worker,
		clock:    clk,
	}
}

func (s *ExpenseService) List(ctx context.Context, query *repository.ExpenseQuery) ([]models.ExpenseEntry, int64, error) {
	entries, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, classify(err, "failed to list expenses")
	}
	return entries, total, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uint) (*models.ExpenseEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	return entry, nil
}

// Create records an expense. A recurring expense with more than one month is
// split into monthly installments, all written in one transaction.
func (s *ExpenseService) Create(ctx context.Context, input ExpenseInput, actor Actor) (*ExpenseCreated, error) {
	if input.PaymentMethod == "" {
		input.PaymentMethod = models.PaymentMethodCash
	}
	if input.ExpenseDate.IsZero() {
		input.ExpenseDate = s.clock.Now()
	}
	if input.RecurringMonths < 0 {
		return nil, validationError("recurring_months must not be negative")
	}
	if err := validateExpense(input.Amount, input.VATAmount, input.Category, input.PaymentMethod); err != nil {
		return nil, err
	}

	base := models.ExpenseEntry{
		Amount:          input.Amount,
		VATAmount:       input.VATAmount,
		Description:     strings.TrimSpace(input.Description),
		Category:        input.Category,
		ExpenseDate:     input.ExpenseDate,
		Status:          models.ExpenseStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Vendor:          input.Vendor,
		IsRecurring:     input.IsRecurring,
		RecurringMonths: input.RecurringMonths,
		CreatedByID:     actor.UserID,
	}

	if !input.IsRecurring || input.RecurringMonths <= 1 {
		entry := base
		if err := s.repo.Create(ctx, &entry); err != nil {
			return nil, classify(err, "failed to create expense")
		}
		s.auditSvc.Log(ctx, actor, models.AuditActionCreate, models.AuditEntityExpense, entry.ID,
			fmt.Sprintf("Expense %s (%s) recorded", entry.Amount.StringFixed(2), entry.Category))
		return &ExpenseCreated{Parent: &entry, Installments: []models.ExpenseEntry{}}, nil
	}

	return s.createRecurring(ctx, base, actor)
}

func (s *ExpenseService) createRecurring(ctx context.Context, base models.ExpenseEntry, actor Actor) (*ExpenseCreated, error) {
	plan := finance.RecurringPlan{
		Total:       base.Amount,
		Months:      base.RecurringMonths,
		Date:        base.ExpenseDate,
		Description: base.Description,
	}
	installments, err := finance.SplitRecurring(plan)
	if err != nil {
		return nil, classify(err, "failed to split recurring expense")
	}
	vat := base.VATAmount.Div(decimal.NewFromInt(int64(base.RecurringMonths))).Floor()

	entries := make([]models.ExpenseEntry, len(installments))
	for i, inst := range installments {
		e := base
		e.Amount = inst.Amount
		e.VATAmount = vat
		e.ExpenseDate = inst.Date
		e.Description = inst.Description
		e.RecurringSequence = inst.Sequence
		entries[i] = e
	}

	err = s.uow.Do(ctx, func(tx *repository.Repositories) error {
		if err := tx.Expense.Create(ctx, &entries[0]); err != nil {
			return err
		}
		parentID := entries[0].ID
		for i := 1; i < len(entries); i++ {
			entries[i].ParentExpenseID = &parentID
			if err := tx.Expense.Create(ctx, &entries[i]); err != nil {
				return fmt.Errorf("create installment %d/%d: %w", i+1, len(entries), err)
			}
		}
		return s.auditSvc.LogWith(ctx, tx.Audit, actor, models.AuditActionCreate, models.AuditEntityExpense, parentID,
			fmt.Sprintf("Recurring expense %s split into %d installments", base.Amount.StringFixed(2), len(entries)))
	})
	if err != nil {
		return nil, classify(err, "failed to create recurring expense")
	}

	return &ExpenseCreated{Parent: &entries[0], Installments: entries[1:]}, nil
}

// Update edits one expense or installment
func (s *ExpenseService) Update(ctx context.Context, id uint, input ExpenseUpdate, actor Actor) (*models.ExpenseEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	if input.Amount != nil {
		entry.Amount = *input.Amount
	}
	if input.VATAmount != nil {
		entry.VATAmount = *input.VATAmount
	}
	if input.Description != nil {
		entry.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		entry.Category = *input.Category
	}
	if input.ExpenseDate != nil {
		entry.ExpenseDate = *input.ExpenseDate
	}
	if input.PaymentMethod != nil {
		entry.PaymentMethod = *input.PaymentMethod
	}
	if input.Vendor != nil {
		entry.Vendor = input.Vendor
	}

	if err := validateExpense(entry.Amount, entry.VATAmount, entry.Category, entry.PaymentMethod); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, classify(err, "failed to update expense")
	}

	s.auditSvc.Log(ctx, actor, models.AuditActionUpdate, models.AuditEntityExpense, entry.ID, "Expense updated")
	return entry, nil
}

// Approve counts the expense toward expense totals
func (s *ExpenseService) Approve(ctx context.Context, id uint, actor Actor) (*models.ExpenseEntry, error) {
	return s.transition(ctx, id, actor, models.AuditActionApprove, func(f *statemachine.ExpenseFSM) error {
		return f.Approve(ctx, actor.UserID, s.clock.Now())
	})
}

// Reject closes the expense without counting it
func (s *ExpenseService) Reject(ctx context.Context, id uint, reason string, actor Actor) (*models.ExpenseEntry, error) {
	return s.transition(ctx, id, actor, models.AuditActionReject, func(f *statemachine.ExpenseFSM) error {
		return f.Reject(ctx, strings.TrimSpace(reason))
	})
}

func (s *ExpenseService) transition(ctx context.Context, id uint, actor Actor, action string, event func(*statemachine.ExpenseFSM) error) (*models.ExpenseEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	from := entry.Status
	if err := event(statemachine.NewExpenseFSM(entry)); err != nil {
		return nil, classify(err, "failed to change expense status")
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, classify(err, "failed to save expense status")
	}

	s.auditSvc.Log(ctx, actor, action, models.AuditEntityExpense, entry.ID,
		fmt.Sprintf("Status %s -> %s", from, entry.Status))
	return entry, nil
}

// Delete removes an expense. Deleting the parent of a recurring expense removes
// every installment. Receipt files are removed once the delete has committed.
func (s *ExpenseService) Delete(ctx context.Context, id uint, actor Actor) error {
	var files []string

	err := s.uow.Do(ctx, func(tx *repository.Repositories) error {
		entry, err := tx.Expense.FindByID(ctx, id)
		if err != nil {
			return s.lookupError(err, id)
		}
		if entry.HasReceipt() {
			files = append(files, *entry.ReceiptPath)
		}

		details := "Expense deleted"
		if entry.IsRecurringParent() {
			children, err := tx.Expense.FindByParent(ctx, entry.ID)
			if err != nil {
				return err
			}
			for _, c := range children {
				if c.HasReceipt() {
					files = append(files, *c.ReceiptPath)
				}
			}
			if err := tx.Expense.DeleteByParent(ctx, entry.ID); err != nil {
				return err
			}
			details = fmt.Sprintf("Recurring expense deleted with %d installments", len(children))
		}

		if err := tx.Expense.Delete(ctx, id); err != nil {
			return err
		}
		return s.auditSvc.LogWith(ctx, tx.Audit, actor, models.AuditActionDelete, models.AuditEntityExpense, id, details)
	})
	if err != nil {
		return classify(err, "failed to delete expense")
	}

	s.removeFiles(files)
	return nil
}

// AttachReceipt stores a receipt file and links it to the expense,
// replacing any previous attachment.
func (s *ExpenseService) AttachReceipt(ctx context.Context, id uint, data []byte, filename, contentType string, actor Actor) (*models.ExpenseEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	path, err := s.imageSvc.SaveReceipt(data, filename, contentType)
	if err != nil {
		return nil, err
	}

	var previous []string
	if entry.HasReceipt() {
		previous = append(previous, *entry.ReceiptPath)
	}
	name := filename
	entry.ReceiptPath = &path
	entry.ReceiptFilename = &name

	if err := s.repo.Update(ctx, entry); err != nil {
		s.removeFiles([]string{path})
		return nil, classify(err, "failed to attach receipt")
	}
	s.removeFiles(previous)

	s.auditSvc.Log(ctx, actor, models.AuditActionUpload, models.AuditEntityExpense, entry.ID,
		fmt.Sprintf("Receipt %s attached", filename))
	return entry, nil
}

// OpenReceipt returns the attached receipt file of an expense
func (s *ExpenseService) OpenReceipt(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", s.lookupError(err, id)
	}
	if !entry.HasReceipt() {
		return nil, "", &Error{Kind: KindNotFound, Message: fmt.Sprintf("expense #%d has no receipt", id)}
	}

	f, err := s.storage.Open(*entry.ReceiptPath)
	if err != nil {
		return nil, "", externalError("failed to open receipt", err)
	}
	// images are stored re-encoded, so the served name follows the stored file
	name := "receipt"
	if entry.ReceiptFilename != nil {
		name = strings.TrimSuffix(*entry.ReceiptFilename, filepath.Ext(*entry.ReceiptFilename))
	}
	return f, name + filepath.Ext(*entry.ReceiptPath), nil
}

func (s *ExpenseService) removeFiles(paths []string) {
	for _, p := range paths {
		path := p
		s.worker.EnqueueAsync("delete-receipt-file", func(ctx context.Context) error {
			return s.storage.Delete(path)
		})
	}
}

func (s *ExpenseService) lookupError(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("expense", id)
	}
	return classify(err, "failed to load expense")
}

func validateExpense(amount, vat decimal.Decimal, category models.ExpenseCategory, method models.PaymentMethod) error {
	if amount.IsNegative() {
		return validationError("amount must not be negative")
	}
	if vat.IsNegative() {
		return validationError("vat_amount must not be negative")
	}
	if vat.GreaterThan(amount) {
		return validationError("vat_amount must not exceed amount")
	}
	if !category.Valid() {
		return validationError("invalid category %q", category)
	}
	if !method.Valid() {
		return validationError("invalid payment_method %q", method)
	}
	return nil
}
