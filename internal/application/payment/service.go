package payment

import (
	"context"
	"fmt"
	"time"

	applending "github.com/Zhima-Mochi/library-lending/internal/application/lending"
	catalogdom "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
	domain "github.com/Zhima-Mochi/library-lending/internal/domain/payment"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
	"github.com/Zhima-Mochi/library-lending/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	paymentService = "payment-service"

	useCasePay    = "payment.pay_late_fees"
	useCaseRefund = "payment.refund"
	useCaseVerify = "payment.verify"

	gatewayPeer = "payment_gateway"
)

// FeeQuoter supplies the fee owed by a patron for a book. An error means the
// fee could not be computed at all; a zero-fee quote means nothing is owed.
type FeeQuoter interface {
	QuoteLateFee(ctx context.Context, patronID string, bookID int64) (applending.FeeQuote, error)
}

// BookFinder resolves a book for the human-readable charge description.
type BookFinder interface {
	GetByID(ctx context.Context, id int64) (*catalogdom.Book, error)
}

// Result is the outcome of a payment operation. Like the lending operations,
// payment operations are total across this boundary.
type Result struct {
	OK      bool
	Message string
}

// ChargeOutcome carries the gateway transaction id on success.
type ChargeOutcome struct {
	Result
	TransactionID string
}

// Orchestrator bridges fee computation to the payment gateway. The gateway
// is injected at construction; production and simulated implementations are
// interchangeable.
type Orchestrator struct {
	quotes  FeeQuoter
	books   BookFinder
	gateway domain.Gateway

	tracer      observability.TraceCtx
	log         observability.Logger
	requests    observability.Counter
	duration    observability.Histogram
	extRequests observability.Counter
	extDuration observability.Histogram
}

func NewOrchestrator(quotes FeeQuoter, books BookFinder, gateway domain.Gateway, tel observability.Telemetry) *Orchestrator {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Orchestrator{
		quotes:      quotes,
		books:       books,
		gateway:     gateway,
		tracer:      tel.Tracer(),
		log:         tel.Logger().With(observability.F("service", paymentService)),
		requests:    tel.Counter(observability.MUsecaseRequests),
		duration:    tel.Histogram(observability.MUsecaseDuration),
		extRequests: tel.Counter(observability.MExternalRequests),
		extDuration: tel.Histogram(observability.MExternalRequestDuration),
	}
}

// PayLateFees charges the patron's outstanding late fee for the book through
// the gateway. The gateway is never contacted when the fee cannot be
// computed, when nothing is owed, or when the book cannot be resolved.
// Gateway faults are contained and surfaced as a generic payment error;
// gateway declines surface the gateway's own message.
func (o *Orchestrator) PayLateFees(ctx context.Context, patronID string, bookID int64) ChargeOutcome {
	logger := logctx.FromOr(ctx, o.log).With(
		observability.F("use_case", useCasePay),
		observability.F("patron_id", patronID),
		observability.F("book_id", bookID),
	)
	defer o.observe(useCasePay, time.Now())

	quote, err := o.quotes.QuoteLateFee(ctx, patronID, bookID)
	if err != nil {
		logger.Error("fee_quote_failed", observability.F("error", err.Error()))
		return ChargeOutcome{Result: o.fail(logger, useCasePay, "Unable to calculate late fee.")}
	}
	if quote.FeeAmount == 0 {
		return ChargeOutcome{Result: o.fail(logger, useCasePay, "No late fees owed for this book.")}
	}

	book, err := o.books.GetByID(ctx, bookID)
	if err != nil {
		return ChargeOutcome{Result: o.fail(logger, useCasePay, "Book not found.")}
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	charge, err := o.processPayment(ctx, patronID, quote.FeeAmount, description)
	if err != nil {
		logger.Error("gateway_charge_failed", observability.F("error", err.Error()))
		return ChargeOutcome{Result: o.fail(logger, useCasePay, "Payment processing error. Please try again later.")}
	}
	if !charge.Approved {
		return ChargeOutcome{Result: o.fail(logger, useCasePay, charge.Message)}
	}

	logger.Info("late_fee_paid",
		observability.F("transaction_id", charge.TransactionID),
		observability.F("amount", quote.FeeAmount.String()),
	)
	o.requests.Add(1, observability.L("use_case", useCasePay), observability.L("outcome", "success"))
	return ChargeOutcome{
		Result:        Result{OK: true, Message: charge.Message},
		TransactionID: charge.TransactionID,
	}
}

// RefundLateFeePayment passes the refund straight through to the gateway.
// Validation of the transaction id and amount is the gateway's job; this
// orchestrator only contains faults.
func (o *Orchestrator) RefundLateFeePayment(ctx context.Context, transactionID string, amount money.Cents) Result {
	logger := logctx.FromOr(ctx, o.log).With(
		observability.F("use_case", useCaseRefund),
		observability.F("transaction_id", transactionID),
	)
	defer o.observe(useCaseRefund, time.Now())

	refund, err := o.refundPayment(ctx, transactionID, amount)
	if err != nil {
		logger.Error("gateway_refund_failed", observability.F("error", err.Error()))
		return o.fail(logger, useCaseRefund, "Refund processing error. Please try again later.")
	}
	if !refund.Approved {
		return o.fail(logger, useCaseRefund, refund.Message)
	}

	o.requests.Add(1, observability.L("use_case", useCaseRefund), observability.L("outcome", "success"))
	return Result{OK: true, Message: refund.Message}
}

// VerifyPayment reports the gateway's view of a transaction. Gateway faults
// degrade to a not-found verification rather than propagating.
func (o *Orchestrator) VerifyPayment(ctx context.Context, transactionID string) domain.Verification {
	defer o.observe(useCaseVerify, time.Now())

	start := time.Now()
	verification, err := o.gateway.VerifyPaymentStatus(ctx, transactionID)
	o.external("verify_status", start, err == nil)
	if err != nil {
		logctx.FromOr(ctx, o.log).Error("gateway_verify_failed",
			observability.F("transaction_id", transactionID),
			observability.F("error", err.Error()),
		)
		return domain.Verification{
			TransactionID: transactionID,
			Status:        domain.StatusNotFound,
			Message:       "Verification unavailable.",
		}
	}
	return verification
}

func (o *Orchestrator) processPayment(ctx context.Context, patronID string, amount money.Cents, description string) (domain.ChargeResult, error) {
	ctx, span := o.tracer.Start(ctx, "Gateway.ProcessPayment",
		attribute.String("peer.service", gatewayPeer),
		attribute.String("payment.patron_id", patronID),
		attribute.Int64("payment.amount_cents", int64(amount)),
	)
	defer span.End()

	start := time.Now()
	charge, err := o.gateway.ProcessPayment(ctx, patronID, amount, description)
	o.external("process_payment", start, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway call failed")
		return domain.ChargeResult{}, err
	}
	span.SetAttributes(attribute.Bool("payment.approved", charge.Approved))
	span.SetStatus(codes.Ok, "")
	return charge, nil
}

func (o *Orchestrator) refundPayment(ctx context.Context, transactionID string, amount money.Cents) (domain.RefundResult, error) {
	ctx, span := o.tracer.Start(ctx, "Gateway.RefundPayment",
		attribute.String("peer.service", gatewayPeer),
		attribute.Int64("payment.amount_cents", int64(amount)),
	)
	defer span.End()

	start := time.Now()
	refund, err := o.gateway.RefundPayment(ctx, transactionID, amount)
	o.external("refund_payment", start, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway call failed")
		return domain.RefundResult{}, err
	}
	span.SetAttributes(attribute.Bool("payment.approved", refund.Approved))
	span.SetStatus(codes.Ok, "")
	return refund, nil
}

func (o *Orchestrator) external(endpoint string, start time.Time, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	o.extRequests.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	o.extDuration.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpoint),
	)
}

func (o *Orchestrator) fail(logger observability.Logger, useCase, msg string) Result {
	logger.Info(useCase+"_rejected", observability.F("message", msg))
	o.requests.Add(1, observability.L("use_case", useCase), observability.L("outcome", "failure"))
	return Result{OK: false, Message: msg}
}

func (o *Orchestrator) observe(useCase string, start time.Time) {
	o.duration.Observe(time.Since(start).Seconds(), observability.L("use_case", useCase))
}
