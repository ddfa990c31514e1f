package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound: payment, order, account or payout entry missing.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyFinalized: approving or rejecting a payment that already
	// left pending.
	ErrAlreadyFinalized = errors.New("payment already finalized")
	// ErrAlreadyResolved: resolving an order whose admin action is set.
	ErrAlreadyResolved = errors.New("order already resolved")
	// ErrOrderFinalized: mutating an order whose admin action is terminal.
	ErrOrderFinalized = errors.New("order finalized")
	// ErrValidationFailed: missing mandatory field or malformed input.
	ErrValidationFailed = errors.New("validation failed")
)

// PartialFanOutFailure reports a settlement where the payment was approved
// but some side effects did not land. The commit fence is never rolled back;
// an operator re-runs fan-out for the failed lines.
type PartialFanOutFailure struct {
	PaymentID         string
	CreatedOrderIDs   []string
	FailedProducts    []string
	BuyerCreditFailed bool
}

func (e *PartialFanOutFailure) Error() string {
	parts := []string{fmt.Sprintf("settlement of payment %s partially failed", e.PaymentID)}
	if len(e.FailedProducts) > 0 {
		parts = append(parts, "failed lines: "+strings.Join(e.FailedProducts, ", "))
	}
	if e.BuyerCreditFailed {
		parts = append(parts, "buyer credit failed")
	}
	return strings.Join(parts, "; ")
}
