package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
	"github.com/Zhima-Mochi/library-lending/internal/domain/payment"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestProcessPaymentDeterministicTxnID(t *testing.T) {
	g := NewWithClock(fixedClock(1_700_000_000))

	first, err := g.ProcessPayment(context.Background(), "123456", money.Cents(1050), "Late fees")
	require.NoError(t, err)
	require.True(t, first.Approved)
	assert.Equal(t, "txn_123456_1700000000", first.TransactionID)

	second, err := g.ProcessPayment(context.Background(), "123456", money.Cents(1050), "Late fees")
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, second.TransactionID, "same inputs at the same instant must yield the same id")
}

func TestProcessPaymentValidation(t *testing.T) {
	testCases := []struct {
		name     string
		patronID string
		amount   money.Cents
		wantMsg  string
	}{
		{"zero amount", "123456", 0, "Invalid amount"},
		{"negative amount", "123456", -100, "Invalid amount"},
		{"over limit", "123456", 100001, "exceeds limit"},
		{"short patron id", "12345", 1000, "Invalid patron ID"},
		{"non-digit patron id", "12345a", 1000, "Invalid patron ID"},
	}

	g := New()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.ProcessPayment(context.Background(), tt.patronID, tt.amount, "x")
			require.NoError(t, err)
			assert.False(t, res.Approved)
			assert.Empty(t, res.TransactionID)
			assert.Contains(t, res.Message, tt.wantMsg)
		})
	}
}

func TestProcessPaymentAtLimit(t *testing.T) {
	g := NewWithClock(fixedClock(1_700_000_000))

	res, err := g.ProcessPayment(context.Background(), "123456", ChargeLimit, "x")
	require.NoError(t, err)
	assert.True(t, res.Approved, "exactly $1000.00 is still within the limit")
}

func TestRefundPaymentValidation(t *testing.T) {
	testCases := []struct {
		name    string
		txnID   string
		amount  money.Cents
		wantMsg string
	}{
		{"empty txn id", "", 500, "Invalid transaction ID"},
		{"missing prefix", "abc", 500, "Invalid transaction ID"},
		{"wrong prefix", "pay_123", 500, "Invalid transaction ID"},
		{"zero amount", "txn_123456_1", 0, "Invalid refund amount"},
		{"negative amount", "txn_123456_1", -100, "Invalid refund amount"},
		{"above max fee", "txn_123456_1", 1501, "exceeds maximum refundable late fee"},
	}

	g := New()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.RefundPayment(context.Background(), tt.txnID, tt.amount)
			require.NoError(t, err)
			assert.False(t, res.Approved)
			assert.Contains(t, res.Message, tt.wantMsg)
		})
	}
}

func TestRefundPaymentSuccess(t *testing.T) {
	g := New()

	res, err := g.RefundPayment(context.Background(), "txn_123456_1700000000", money.Cents(500))
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Contains(t, res.Message, "$5.00")

	res, err = g.RefundPayment(context.Background(), "txn_123456_1700000000", RefundLimit)
	require.NoError(t, err)
	assert.True(t, res.Approved, "exactly $15.00 is refundable")
}

func TestVerifyPaymentStatus(t *testing.T) {
	g := NewWithClock(fixedClock(1_700_000_002))

	v, err := g.VerifyPaymentStatus(context.Background(), "bad_id")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusNotFound, v.Status)

	v, err = g.VerifyPaymentStatus(context.Background(), "txn_123456_1700000000")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, v.Status)
	assert.Equal(t, "txn_123456_1700000000", v.TransactionID)
	assert.Equal(t, int64(1_700_000_002), v.Timestamp)
}
