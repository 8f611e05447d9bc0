package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/studio-finance-api/internal/models"
)

// ErrInvalidTransition is wrapped by every rejected lifecycle event
var ErrInvalidTransition = errors.New("invalid state transition")

// IncomeFSM wraps an income entry with its state machine
type IncomeFSM struct {
	entry *models.IncomeEntry
	fsm   *fsm.FSM
}

// NewIncomeFSM creates a new income state machine
func NewIncomeFSM(entry *models.IncomeEntry) *IncomeFSM {
	ifsm := &IncomeFSM{
		entry: entry,
	}

	ifsm.fsm = fsm.NewFSM(
		string(entry.Status),
		fsm.Events{
			// pending → confirmed
			{Name: "confirm", Src: []string{string(models.IncomeStatusPending)}, Dst: string(models.IncomeStatusConfirmed)},

			// pending/confirmed → cancelled
			{Name: "cancel", Src: []string{string(models.IncomeStatusPending), string(models.IncomeStatusConfirmed)}, Dst: string(models.IncomeStatusCancelled)},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Confirm transitions the entry to confirmed
func (i *IncomeFSM) Confirm(ctx context.Context) error {
	if !i.entry.MayConfirm() {
		return fmt.Errorf("%w: income cannot be confirmed in state %s", ErrInvalidTransition, i.entry.Status)
	}
	if i.entry.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: a confirmed income needs a positive amount", ErrInvalidTransition)
	}

	if err := i.fsm.Event(ctx, "confirm"); err != nil {
		return fmt.Errorf("failed to confirm income: %w", err)
	}

	i.entry.Status = models.IncomeStatus(i.fsm.Current())
	return nil
}

// Cancel transitions the entry to cancelled
func (i *IncomeFSM) Cancel(ctx context.Context) error {
	if !i.entry.MayCancel() {
		return fmt.Errorf("%w: income cannot be cancelled in state %s", ErrInvalidTransition, i.entry.Status)
	}

	if err := i.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel income: %w", err)
	}

	i.entry.Status = models.IncomeStatus(i.fsm.Current())
	return nil
}

// Current returns the current state
func (i *IncomeFSM) Current() string {
	return i.fsm.Current()
}
