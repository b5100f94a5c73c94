package payment

import (
	"context"

	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusNotFound  Status = "not_found"
)

// TxnPrefix starts every transaction identifier issued by the gateway:
// "txn_<patron_id>_<unix_timestamp>".
const TxnPrefix = "txn_"

// ChargeResult is the gateway's answer to a charge attempt. A decline is a
// normal result (Approved false with the gateway's message), not an error;
// errors are reserved for the call itself failing.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Message       string
}

type RefundResult struct {
	Approved bool
	Message  string
}

// Verification is the gateway's view of a past transaction.
type Verification struct {
	TransactionID string
	Status        Status
	Amount        money.Cents
	Timestamp     int64
	Message       string
}

// Gateway is the outbound port to the payment processor.
type Gateway interface {
	ProcessPayment(ctx context.Context, patronID string, amount money.Cents, description string) (ChargeResult, error)
	RefundPayment(ctx context.Context, transactionID string, amount money.Cents) (RefundResult, error)
	VerifyPaymentStatus(ctx context.Context, transactionID string) (Verification, error)
}
