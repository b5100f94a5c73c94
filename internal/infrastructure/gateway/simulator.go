// Package gateway provides a deterministic, stateless simulation of an
// external payment processor. No store backs it: transaction identifiers
// carry everything needed ("txn_<patron_id>_<unix_timestamp>") and
// verification derives a fresh plausible record from the identifier's shape
// and the injected clock.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
	domain "github.com/Zhima-Mochi/library-lending/internal/domain/payment"
)

// ChargeLimit is the largest single charge the processor accepts.
const ChargeLimit = money.Cents(100000)

// RefundLimit mirrors the maximum late fee: nothing above it can ever have
// been charged, so nothing above it is refundable.
const RefundLimit = money.Cents(1500)

// Simulator implements payment.Gateway. Identical inputs at the same clock
// instant produce identical transaction ids; this keeps tests reproducible
// and is not an anti-fraud mechanism.
type Simulator struct {
	now func() time.Time
}

// New returns a simulator on the system clock.
func New() *Simulator {
	return &Simulator{now: time.Now}
}

// NewWithClock returns a simulator on the supplied clock.
func NewWithClock(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{now: now}
}

func (g *Simulator) ProcessPayment(ctx context.Context, patronID string, amount money.Cents, description string) (domain.ChargeResult, error) {
	_ = ctx
	_ = description

	if amount <= 0 {
		return domain.ChargeResult{Message: "Invalid amount. Payment amount must be greater than $0.00."}, nil
	}
	if amount > ChargeLimit {
		return domain.ChargeResult{Message: fmt.Sprintf("Payment amount exceeds limit of %s.", ChargeLimit)}, nil
	}
	if !isSixDigits(patronID) {
		return domain.ChargeResult{Message: "Invalid patron ID."}, nil
	}

	txnID := fmt.Sprintf("%s%s_%d", domain.TxnPrefix, patronID, g.now().Unix())
	return domain.ChargeResult{
		Approved:      true,
		TransactionID: txnID,
		Message:       fmt.Sprintf("Payment of %s processed successfully.", amount),
	}, nil
}

func (g *Simulator) RefundPayment(ctx context.Context, transactionID string, amount money.Cents) (domain.RefundResult, error) {
	_ = ctx

	if transactionID == "" || !strings.HasPrefix(transactionID, domain.TxnPrefix) {
		return domain.RefundResult{Message: "Invalid transaction ID."}, nil
	}
	if amount <= 0 {
		return domain.RefundResult{Message: "Invalid refund amount. Must be greater than $0.00."}, nil
	}
	if amount > RefundLimit {
		return domain.RefundResult{Message: fmt.Sprintf("Refund amount exceeds maximum refundable late fee of %s.", RefundLimit)}, nil
	}

	return domain.RefundResult{
		Approved: true,
		Message:  fmt.Sprintf("Refund of %s processed successfully.", amount),
	}, nil
}

func (g *Simulator) VerifyPaymentStatus(ctx context.Context, transactionID string) (domain.Verification, error) {
	_ = ctx

	if !hasTxnShape(transactionID) {
		return domain.Verification{
			TransactionID: transactionID,
			Status:        domain.StatusNotFound,
			Message:       "Transaction not found.",
		}, nil
	}

	return domain.Verification{
		TransactionID: transactionID,
		Status:        domain.StatusCompleted,
		Timestamp:     g.now().Unix(),
		Message:       "Transaction completed.",
	}, nil
}

// hasTxnShape checks for the synthesized "txn_<payer>_<timestamp>" form.
func hasTxnShape(id string) bool {
	if !strings.HasPrefix(id, domain.TxnPrefix) {
		return false
	}
	return len(strings.Split(id, "_")) >= 3
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
