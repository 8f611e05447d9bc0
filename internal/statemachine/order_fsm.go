package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/studio-finance-api/internal/models"
)

// OrderFSM covers the order transitions the finance module is allowed to drive
type OrderFSM struct {
	order *models.Order
	fsm   *fsm.FSM
}

// NewOrderFSM creates a new order state machine
func NewOrderFSM(order *models.Order) *OrderFSM {
	ofsm := &OrderFSM{
		order: order,
	}

	ofsm.fsm = fsm.NewFSM(
		order.Status,
		fsm.Events{
			// pending/approved → cancelled
			{Name: "cancel", Src: []string{models.OrderStatusPending, models.OrderStatusApproved}, Dst: models.OrderStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return ofsm
}

// Cancel transitions the order to cancelled and records why
func (o *OrderFSM) Cancel(ctx context.Context, note string) error {
	if err := o.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("%w: order cannot be cancelled in state %s", ErrInvalidTransition, o.order.Status)
	}

	o.order.Status = o.fsm.Current()
	if note != "" {
		o.order.AppendNote(note)
	}
	return nil
}
