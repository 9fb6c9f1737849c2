package billing

import (
	"context"
	"fmt"
	"reflect"

	"github.com/qmuntal/stateless"
)

type Trigger string

const (
	TriggerActivate      Trigger = "activate"
	TriggerSync          Trigger = "sync"
	TriggerDelete        Trigger = "delete"
	TriggerPaymentFailed Trigger = "paymentFailed"
)

// newStatusMachine builds the status axis starting at current. The plan axis
// is not modelled here; it is set independently by each event.
func newStatusMachine(current Status) *stateless.StateMachine {
	sm := stateless.NewStateMachine(current)
	sm.SetTriggerParameters(TriggerSync, reflect.TypeOf(StatusActive))

	for _, st := range statuses {
		cfg := sm.Configure(st).PermitDynamic(TriggerSync, reportedStatus)

		if st == StatusActive {
			cfg.PermitReentry(TriggerActivate)
		} else {
			cfg.Permit(TriggerActivate, StatusActive)
		}

		if st == StatusCanceled {
			cfg.PermitReentry(TriggerDelete)
		} else {
			cfg.Permit(TriggerDelete, StatusCanceled)
		}

		switch st {
		case StatusCanceled:
			// a failed invoice cannot revive a canceled subscription
			cfg.Ignore(TriggerPaymentFailed)
		case StatusPastDue:
			cfg.PermitReentry(TriggerPaymentFailed)
		default:
			cfg.Permit(TriggerPaymentFailed, StatusPastDue)
		}
	}
	return sm
}

func reportedStatus(_ context.Context, args ...any) (stateless.State, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("billing: sync needs the reported status")
	}
	st, ok := args[0].(Status)
	if !ok {
		return nil, fmt.Errorf("billing: unexpected sync argument %T", args[0])
	}
	return st, nil
}

// transition fires trigger from current and returns the resulting status.
func transition(ctx context.Context, current Status, trigger Trigger, args ...any) (Status, error) {
	sm := newStatusMachine(current)
	if err := sm.FireCtx(ctx, trigger, args...); err != nil {
		return current, fmt.Errorf("billing: %s from %s: %w", trigger, current, err)
	}
	next, err := sm.State(ctx)
	if err != nil {
		return current, err
	}
	return next.(Status), nil
}
