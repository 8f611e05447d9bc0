package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/studio-finance-api/internal/clock"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/statemachine"
	"github.com/sjperalta/studio-finance-api/pkg/logger"
	"gorm.io/gorm"
)

// IncomeInput is a manually recorded income entry
type IncomeInput struct {
	Amount        decimal.Decimal
	Description   string
	IncomeType    models.IncomeType
	IncomeDate    time.Time
	Status        models.IncomeStatus
	Category      string
	PaymentMethod models.PaymentMethod
	OrderID       *uint
	ReservationID *uint
	Notes         *string
}

// IncomeUpdate holds the editable fields; nil leaves a field unchanged.
// Order/reservation linkage, creator and status are not editable here.
type IncomeUpdate struct {
	Amount        *decimal.Decimal
	Description   *string
	IncomeType    *models.IncomeType
	IncomeDate    *time.Time
	Category      *string
	PaymentMethod *models.PaymentMethod
	Notes         *string
}

type IncomeService struct {
	repo     repository.IncomeRepository
	uow      repository.UnitOfWork
	auditSvc *AuditService
	clock    clock.Clock
}

func NewIncomeService(repo repository.IncomeRepository, uow repository.UnitOfWork, auditSvc *AuditService, clk clock.Clock) *IncomeService {
	return &IncomeService{
		repo:     repo,
		uow:      uow,
		auditSvc: auditSvc,
		clock:    clk,
	}
}

func (s *IncomeService) List(ctx context.Context, query *repository.IncomeQuery) ([]models.IncomeEntry, int64, error) {
	entries, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, classify(err, "failed to list incomes")
	}
	return entries, total, nil
}

func (s *IncomeService) Get(ctx context.Context, id uint) (*models.IncomeEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	return entry, nil
}

// Create records a manual income entry
func (s *IncomeService) Create(ctx context.Context, input IncomeInput, actor Actor) (*models.IncomeEntry, error) {
	if input.Status == "" {
		input.Status = models.IncomeStatusConfirmed
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = models.PaymentMethodCash
	}
	if input.IncomeDate.IsZero() {
		input.IncomeDate = s.clock.Now()
	}
	if err := validateIncome(input.Amount, input.IncomeType, input.Status, input.PaymentMethod); err != nil {
		return nil, err
	}

	entry := &models.IncomeEntry{
		Amount:        input.Amount,
		Description:   strings.TrimSpace(input.Description),
		IncomeType:    input.IncomeType,
		IncomeDate:    input.IncomeDate,
		Status:        input.Status,
		Category:      normalizeCategory(input.Category),
		OrderID:       input.OrderID,
		ReservationID: input.ReservationID,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		CreatedByID:   actor.UserID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, classify(err, "failed to create income")
	}

	s.auditSvc.Log(ctx, actor, models.AuditActionCreate, models.AuditEntityIncome, entry.ID,
		fmt.Sprintf("Income %s (%s) recorded", entry.Amount.StringFixed(2), entry.IncomeType))
	return entry, nil
}

// CreateFromOrder books the revenue of an approved order. Calling it twice
// for the same order returns the entry booked the first time.
func (s *IncomeService) CreateFromOrder(ctx context.Context, order *models.Order, actor Actor) (*models.IncomeEntry, error) {
	if !order.IsApproved() {
		return nil, &Error{Kind: KindInvalidState, Message: fmt.Sprintf("order #%d is %s, only approved orders book income", order.ID, order.Status)}
	}

	existing, err := s.repo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, classify(err, "failed to look up order income")
	}

	date := s.clock.Now()
	if order.ApprovedAt != nil {
		date = *order.ApprovedAt
	}
	orderID := order.ID
	return s.Create(ctx, IncomeInput{
		Amount:        order.TotalAmount,
		Description:   fmt.Sprintf("Order #%d (%s)", order.ID, order.OrderType),
		IncomeType:    order.IncomeType(),
		IncomeDate:    date,
		Status:        models.IncomeStatusConfirmed,
		PaymentMethod: models.PaymentMethodCash,
		OrderID:       &orderID,
	}, actor)
}

// BookOrder loads an order and books its revenue through CreateFromOrder
func (s *IncomeService) BookOrder(ctx context.Context, orderID uint, actor Actor) (*models.IncomeEntry, error) {
	var order *models.Order
	err := s.uow.Do(ctx, func(tx *repository.Repositories) error {
		var err error
		order, err = tx.Order.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("order", orderID)
		}
		return nil, classify(err, "failed to load order")
	}
	return s.CreateFromOrder(ctx, order, actor)
}

// Update edits an entry in place
func (s *IncomeService) Update(ctx context.Context, id uint, input IncomeUpdate, actor Actor) (*models.IncomeEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	if input.Amount != nil {
		entry.Amount = *input.Amount
	}
	if input.Description != nil {
		entry.Description = strings.TrimSpace(*input.Description)
	}
	if input.IncomeType != nil {
		entry.IncomeType = *input.IncomeType
	}
	if input.IncomeDate != nil {
		entry.IncomeDate = *input.IncomeDate
	}
	if input.Category != nil {
		entry.Category = normalizeCategory(*input.Category)
	}
	if input.PaymentMethod != nil {
		entry.PaymentMethod = *input.PaymentMethod
	}
	if input.Notes != nil {
		entry.Notes = input.Notes
	}

	if err := validateIncome(entry.Amount, entry.IncomeType, entry.Status, entry.PaymentMethod); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, classify(err, "failed to update income")
	}

	s.auditSvc.Log(ctx, actor, models.AuditActionUpdate, models.AuditEntityIncome, entry.ID, "Income updated")
	return entry, nil
}

// Confirm moves a pending entry into revenue
func (s *IncomeService) Confirm(ctx context.Context, id uint, actor Actor) (*models.IncomeEntry, error) {
	return s.transition(ctx, id, actor, models.AuditActionConfirm, func(f *statemachine.IncomeFSM) error {
		return f.Confirm(ctx)
	})
}

// Cancel takes an entry out of revenue without deleting it
func (s *IncomeService) Cancel(ctx context.Context, id uint, actor Actor) (*models.IncomeEntry, error) {
	return s.transition(ctx, id, actor, models.AuditActionCancel, func(f *statemachine.IncomeFSM) error {
		return f.Cancel(ctx)
	})
}

func (s *IncomeService) transition(ctx context.Context, id uint, actor Actor, action string, event func(*statemachine.IncomeFSM) error) (*models.IncomeEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, id)
	}

	from := entry.Status
	if err := event(statemachine.NewIncomeFSM(entry)); err != nil {
		return nil, classify(err, "failed to change income status")
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, classify(err, "failed to save income status")
	}

	s.auditSvc.Log(ctx, actor, action, models.AuditEntityIncome, entry.ID,
		fmt.Sprintf("Status %s -> %s", from, entry.Status))
	return entry, nil
}

// Delete removes an entry. When the entry is linked to an order, the order's
// side effects are reversed and the order is cancelled in the same transaction.
func (s *IncomeService) Delete(ctx context.Context, id uint, actor Actor) error {
	err := s.uow.Do(ctx, func(tx *repository.Repositories) error {
		entry, err := tx.Income.FindByID(ctx, id)
		if err != nil {
			return s.lookupError(err, id)
		}

		if entry.OrderID != nil {
			if err := s.reverseOrder(ctx, tx, entry, actor); err != nil {
				return err
			}
		}

		if err := tx.Income.Delete(ctx, id); err != nil {
			return err
		}
		return s.auditSvc.LogWith(ctx, tx.Audit, actor, models.AuditActionDelete, models.AuditEntityIncome, id,
			fmt.Sprintf("Income %s deleted", entry.Amount.StringFixed(2)))
	})
	if err != nil {
		return classify(err, "failed to delete income")
	}
	return nil
}

// reverseOrder undoes what approving the linked order granted and cancels it
func (s *IncomeService) reverseOrder(ctx context.Context, tx *repository.Repositories, entry *models.IncomeEntry, actor Actor) error {
	order, err := tx.Order.FindByID(ctx, *entry.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("income linked to missing order", "income_id", entry.ID, "order_id", *entry.OrderID)
		return nil
	}
	if err != nil {
		return internalError(fmt.Sprintf("failed to load order #%d", *entry.OrderID), err)
	}

	if order.IsApproved() {
		switch {
		case order.GrantsSessions():
			if err := tx.Order.AdjustSessions(ctx, order.UserID, -order.Sessions); err != nil {
				return internalError(fmt.Sprintf("failed to reverse sessions of order #%d", order.ID), err)
			}
		case order.ProductID != nil:
			if err := tx.Order.AdjustStock(ctx, *order.ProductID, order.Quantity); err != nil {
				return internalError(fmt.Sprintf("failed to restore stock of order #%d", order.ID), err)
			}
		}
	}

	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusRejected {
		return nil
	}
	note := fmt.Sprintf("cancelled: income #%d deleted", entry.ID)
	if err := statemachine.NewOrderFSM(order).Cancel(ctx, note); err != nil {
		return err
	}
	if err := tx.Order.Update(ctx, order); err != nil {
		return internalError(fmt.Sprintf("failed to cancel order #%d", order.ID), err)
	}
	return s.auditSvc.LogWith(ctx, tx.Audit, actor, models.AuditActionCancel, models.AuditEntityOrder, order.ID, note)
}

func (s *IncomeService) lookupError(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("income", id)
	}
	return classify(err, "failed to load income")
}

func validateIncome(amount decimal.Decimal, incomeType models.IncomeType, status models.IncomeStatus, method models.PaymentMethod) error {
	if amount.IsNegative() {
		return validationError("amount must not be negative")
	}
	if !incomeType.Valid() {
		return validationError("invalid income_type %q", incomeType)
	}
	if !status.Valid() {
		return validationError("invalid status %q", status)
	}
	if !method.Valid() {
		return validationError("invalid payment_method %q", method)
	}
	if status == models.IncomeStatusConfirmed && !amount.IsPositive() {
		return validationError("a confirmed income needs a positive amount")
	}
	return nil
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return models.DefaultIncomeCategory
	}
	return category
}
