package httppresentation

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcatalog "github.com/Zhima-Mochi/library-lending/internal/application/catalog"
	applending "github.com/Zhima-Mochi/library-lending/internal/application/lending"
	apppayment "github.com/Zhima-Mochi/library-lending/internal/application/payment"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/memory"
)

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("rec-%d", g.n)
}

type env struct {
	router http.Handler
	books  *memory.BookRepository
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		books: memory.NewBookRepository(),
		now:   time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }

	records := memory.NewBorrowRepository()
	catalogSvc := appcatalog.NewService(e.books, nil)
	lendingSvc := applending.NewService(e.books, records, &seqIDGen{}, nil).WithClock(clock)
	paymentSvc := apppayment.NewOrchestrator(lendingSvc, e.books, gateway.NewWithClock(clock), nil)

	e.router = NewHandler(catalogSvc, lendingSvc, paymentSvc, nil).Router()
	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestAddBookEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"1234567890123","total_copies":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res resultResponse
	decodeBody(t, rec, &res)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Clean Code")

	rec = e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"","author":"A","isbn":"1234567890123","total_copies":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decodeBody(t, rec, &res)
	assert.Equal(t, "Title is required.", res.Message)
}

func TestAddBookEndpointRejectsBadJSON(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/books", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"1234567890123","total_copies":3}`)

	rec := e.do(t, http.MethodGet, "/api/v1/books/search?q=clean&type=title", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var books []bookResponse
	decodeBody(t, rec, &books)
	require.Len(t, books, 1)
	assert.Equal(t, "Clean Code", books[0].Title)
	assert.Equal(t, 3, books[0].AvailableCopies)

	rec = e.do(t, http.MethodGet, "/api/v1/books/search?q=nonexistent&type=title", "")
	decodeBody(t, rec, &books)
	assert.Empty(t, books)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"1234567890123","total_copies":1}`)

	rec := e.do(t, http.MethodPost, "/api/v1/loans", `{"patron_id":"123456","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var borrow borrowResponse
	decodeBody(t, rec, &borrow)
	assert.True(t, borrow.Success)
	assert.Equal(t, "2026-04-15", borrow.DueDate)

	// The single copy is out; a second patron is rejected.
	rec = e.do(t, http.MethodPost, "/api/v1/loans", `{"patron_id":"654321","book_id":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Return 10 days late.
	e.now = e.now.AddDate(0, 0, 24)
	rec = e.do(t, http.MethodPost, "/api/v1/returns", `{"patron_id":"123456","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var ret returnResponse
	decodeBody(t, rec, &ret)
	assert.True(t, ret.Success)
	assert.Equal(t, 10, ret.DaysOverdue)
	assert.Equal(t, 6.5, ret.LateFee)
}

func TestQuoteAndReportEndpoints(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"1234567890123","total_copies":1}`)
	e.do(t, http.MethodPost, "/api/v1/loans", `{"patron_id":"123456","book_id":1}`)
	e.now = e.now.AddDate(0, 0, 24)

	rec := e.do(t, http.MethodGet, "/api/v1/patrons/123456/fees/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var quote feeQuoteResponse
	decodeBody(t, rec, &quote)
	assert.Equal(t, 6.5, quote.FeeAmount)
	assert.Equal(t, 10, quote.DaysOverdue)

	rec = e.do(t, http.MethodGet, "/api/v1/patrons/123456/report", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report reportResponse
	decodeBody(t, rec, &report)
	assert.Equal(t, "Complete", report.Status)
	assert.Equal(t, 1, report.NumCurrentlyBorrowed)
	assert.Equal(t, 6.5, report.TotalLateFeesOwed)
	require.Len(t, report.History, 1)
	assert.Empty(t, report.History[0].ReturnDate, "active loan has no return date")

	rec = e.do(t, http.MethodGet, "/api/v1/patrons/123456/fees/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentEndpoints(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/v1/books",
		`{"title":"Clean Code","author":"Robert C. Martin","isbn":"1234567890123","total_copies":1}`)
	e.do(t, http.MethodPost, "/api/v1/loans", `{"patron_id":"123456","book_id":1}`)

	// Nothing owed yet.
	rec := e.do(t, http.MethodPost, "/api/v1/fees/pay", `{"patron_id":"123456","book_id":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var pay payFeesResponse
	decodeBody(t, rec, &pay)
	assert.Equal(t, "No late fees owed for this book.", pay.Message)

	e.now = e.now.AddDate(0, 0, 24) // now 10 days overdue
	rec = e.do(t, http.MethodPost, "/api/v1/fees/pay", `{"patron_id":"123456","book_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &pay)
	assert.True(t, pay.Success)
	assert.Equal(t, "Payment of $6.50 processed successfully.", pay.Message)
	require.NotEmpty(t, pay.TransactionID)

	rec = e.do(t, http.MethodPost, "/api/v1/fees/refund",
		fmt.Sprintf(`{"transaction_id":%q,"amount":6.5}`, pay.TransactionID))
	require.Equal(t, http.StatusOK, rec.Code)

	var refund resultResponse
	decodeBody(t, rec, &refund)
	assert.True(t, refund.Success)
	assert.Equal(t, "Refund of $6.50 processed successfully.", refund.Message)

	rec = e.do(t, http.MethodGet, "/api/v1/payments/"+pay.TransactionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var verify verifyResponse
	decodeBody(t, rec, &verify)
	assert.Equal(t, "completed", verify.Status)

	rec = e.do(t, http.MethodGet, "/api/v1/payments/bogus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &verify)
	assert.Equal(t, "not_found", verify.Status)
}

func TestHealthEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/books/search?q=x", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/search?q=x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	out := httptest.NewRecorder()
	e.router.ServeHTTP(out, req)
	assert.Equal(t, "req-42", out.Header().Get("X-Request-ID"))
}
