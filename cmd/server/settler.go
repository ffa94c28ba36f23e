package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"robokassa/internal/logger"
	"robokassa/merchant"
	"robokassa/payment"
)

type stateChecker interface {
	OperationState(ctx context.Context, invID string) (*merchant.OperationState, error)
}

// confirmingSettler double-checks a result callback against OpStateExt
// before accepting it. Test payments are not visible to the service.
type confirmingSettler struct {
	states stateChecker
	isTest bool
}

func newSettler(states stateChecker, isTest bool) *confirmingSettler {
	return &confirmingSettler{states: states, isTest: isTest}
}

func (s *confirmingSettler) Settle(ctx context.Context, n *payment.Notification) error {
	log := logger.FromCtx(ctx).With(
		zap.String("inv_id", n.InvID),
		zap.String("out_sum", n.OutSum.String()),
		zap.String("payment_method", n.PaymentMethod),
	)

	if !s.isTest {
		state, err := s.states.OperationState(ctx, n.InvID)
		if err != nil {
			return fmt.Errorf("operation state: %w", err)
		}
		if !state.Paid() {
			return fmt.Errorf("invoice %s is in state %s, not paid", n.InvID, state.StateCode)
		}
	}

	log.Info("Payment accepted")
	return nil
}
