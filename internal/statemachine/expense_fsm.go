package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/studio-finance-api/internal/models"
)

// ExpenseFSM wraps an expense entry with its approval state machine
type ExpenseFSM struct {
	entry *models.ExpenseEntry
	fsm   *fsm.FSM
}

// NewExpenseFSM creates a new expense state machine
func NewExpenseFSM(entry *models.ExpenseEntry) *ExpenseFSM {
	efsm := &ExpenseFSM{
		entry: entry,
	}

	efsm.fsm = fsm.NewFSM(
		string(entry.Status),
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{string(models.ExpenseStatusPending)}, Dst: string(models.ExpenseStatusApproved)},

			// pending → rejected
			{Name: "reject", Src: []string{string(models.ExpenseStatusPending)}, Dst: string(models.ExpenseStatusRejected)},
		},
		fsm.Callbacks{},
	)

	return efsm
}

// Approve transitions the expense to approved and stamps the approver
func (e *ExpenseFSM) Approve(ctx context.Context, approverID uint, at time.Time) error {
	if !e.entry.MayApprove() {
		return fmt.Errorf("%w: expense cannot be approved in state %s", ErrInvalidTransition, e.entry.Status)
	}

	if err := e.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve expense: %w", err)
	}

	e.entry.Status = models.ExpenseStatus(e.fsm.Current())
	e.entry.ApprovedByID = &approverID
	e.entry.ApprovedAt = &at
	e.entry.RejectionReason = nil
	return nil
}

// Reject transitions the expense to rejected with a reason
func (e *ExpenseFSM) Reject(ctx context.Context, reason string) error {
	if !e.entry.MayApprove() {
		return fmt.Errorf("%w: expense cannot be rejected in state %s", ErrInvalidTransition, e.entry.Status)
	}

	if err := e.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject expense: %w", err)
	}

	e.entry.Status = models.ExpenseStatus(e.fsm.Current())
	if reason != "" {
		e.entry.RejectionReason = &reason
	}
	return nil
}

// Current returns the current state
func (e *ExpenseFSM) Current() string {
	return e.fsm.Current()
}
