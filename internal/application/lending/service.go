package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogdom "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/library-lending/internal/domain/lending"
	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
	"github.com/Zhima-Mochi/library-lending/internal/observability/logctx"
)

const (
	lendingService = "lending-service"

	useCaseBorrow = "lending.borrow"
	useCaseReturn = "lending.return"
	useCaseQuote  = "lending.quote_late_fee"
	useCaseReport = "lending.status_report"

	msgInvalidPatronID = "Invalid patron ID. Must be exactly 6 digits."
	msgBookNotFound    = "Book not found."
)

// IDGenerator issues identifiers for new borrow records.
type IDGenerator interface {
	NewID() string
}

// Result is the outcome of a lending operation: a success flag plus a
// human-readable message. Lending operations are total; they never fail
// with an error across this boundary.
type Result struct {
	OK      bool
	Message string
}

// BorrowResult carries the due date of the new loan for display.
type BorrowResult struct {
	Result
	DueDate time.Time
}

// ReturnResult reports the late-fee outcome alongside the message.
type ReturnResult struct {
	Result
	DaysOverdue int
	Fee         money.Cents
}

// FeeQuote is an ephemeral fee computation. It is derived on demand and
// never persisted.
type FeeQuote struct {
	FeeAmount   money.Cents
	DaysOverdue int
	Status      string
}

// Loan is one active borrow in a patron report.
type Loan struct {
	BookID      int64
	Title       string
	DueDate     time.Time
	DaysOverdue int
	LateFee     money.Cents
}

// PatronReport summarises a patron's active loans, fees owed, and history.
type PatronReport struct {
	PatronID             string
	Status               string
	NumCurrentlyBorrowed int
	TotalFeesOwed        money.Cents
	CurrentlyBorrowed    []Loan
	History              []*domain.Record
}

type Service struct {
	books   catalogdom.Repository
	records domain.Repository
	idGen   IDGenerator
	now     func() time.Time

	log      observability.Logger
	requests observability.Counter
	duration observability.Histogram
}

func NewService(books catalogdom.Repository, records domain.Repository, idGen IDGenerator, tel observability.Telemetry) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		books:    books,
		records:  records,
		idGen:    idGen,
		now:      time.Now,
		log:      tel.Logger().With(observability.F("service", lendingService)),
		requests: tel.Counter(observability.MUsecaseRequests),
		duration: tel.Histogram(observability.MUsecaseDuration),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Borrow opens a 14-day loan for the patron and takes one copy off the
// shelf. It enforces the 5-loan cap and the availability lower bound. When
// the record insert succeeds but the availability decrement fails, the
// record is intentionally not rolled back; the operation still reports
// failure and reconciliation is left to an administrative process.
func (s *Service) Borrow(ctx context.Context, patronID string, bookID int64) BorrowResult {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseBorrow),
		observability.F("patron_id", patronID),
		observability.F("book_id", bookID),
	)
	defer s.observe(useCaseBorrow, time.Now())

	if !domain.IsValidPatronID(patronID) {
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, msgInvalidPatronID)}
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, catalogdom.ErrNotFound) {
			return BorrowResult{Result: s.fail(logger, useCaseBorrow, msgBookNotFound)}
		}
		logger.Error("book_lookup_failed", observability.F("error", err.Error()))
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, msgBookNotFound)}
	}

	if book.AvailableCopies <= 0 {
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, "This book is currently not available.")}
	}

	active, err := s.records.CountActive(ctx, patronID)
	if err != nil {
		logger.Error("borrow_count_failed", observability.F("error", err.Error()))
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, "Database error occurred while checking borrowed books.")}
	}
	if active >= domain.MaxActiveLoans {
		return BorrowResult{Result: s.fail(logger, useCaseBorrow,
			fmt.Sprintf("You have reached the maximum borrowing limit of %d books.", domain.MaxActiveLoans))}
	}

	record, err := domain.NewRecord(s.idGen.NewID(), patronID, bookID, s.now())
	if err != nil {
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, msgInvalidPatronID)}
	}

	if err := s.records.Insert(ctx, record); err != nil {
		logger.Error("borrow_record_insert_failed", observability.F("error", err.Error()))
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, "Database error occurred while creating borrow record.")}
	}

	if err := s.books.AdjustAvailability(ctx, bookID, -1); err != nil {
		// The borrow record stays behind; see the note above.
		logger.Error("availability_decrement_failed", observability.F("error", err.Error()))
		return BorrowResult{Result: s.fail(logger, useCaseBorrow, "Database error occurred while updating book availability.")}
	}

	msg := fmt.Sprintf("Successfully borrowed %q. Due date: %s.", book.Title, record.DueDate.Format("2006-01-02"))
	return BorrowResult{Result: s.ok(logger, useCaseBorrow, msg), DueDate: record.DueDate}
}

// Return closes the patron's active loan for the book, puts the copy back
// on the shelf without ever exceeding total copies, and reports any late
// fee owed. A loan with an unusable due date degrades to "no late fee"
// rather than failing the return.
func (s *Service) Return(ctx context.Context, patronID string, bookID int64) ReturnResult {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseReturn),
		observability.F("patron_id", patronID),
		observability.F("book_id", bookID),
	)
	defer s.observe(useCaseReturn, time.Now())

	if !domain.IsValidPatronID(patronID) {
		return ReturnResult{Result: s.fail(logger, useCaseReturn, msgInvalidPatronID)}
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return ReturnResult{Result: s.fail(logger, useCaseReturn, msgBookNotFound)}
	}

	returnedAt := s.now()
	record, err := s.records.MarkReturned(ctx, patronID, bookID, returnedAt)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveRecord) {
			return ReturnResult{Result: s.fail(logger, useCaseReturn, "No active borrow record found for this patron and book.")}
		}
		logger.Error("mark_returned_failed", observability.F("error", err.Error()))
		return ReturnResult{Result: s.fail(logger, useCaseReturn, "Database error occurred while recording the return.")}
	}

	// Re-read so the upper-bound check sees the latest counter value.
	fresh, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return ReturnResult{Result: s.fail(logger, useCaseReturn, "Book not found during update.")}
	}
	if fresh.AvailableCopies < fresh.TotalCopies {
		if err := s.books.AdjustAvailability(ctx, bookID, +1); err != nil {
			logger.Error("availability_increment_failed", observability.F("error", err.Error()))
			return ReturnResult{Result: s.fail(logger, useCaseReturn, "Database error while updating book availability.")}
		}
	}
	// else: counter already at capacity; skip the increment to honor the bound.

	daysOverdue, fee := domain.LateFee(record.DueDate, returnedAt)
	if daysOverdue > 0 && fee > 0 {
		msg := fmt.Sprintf("Returned %q. %d day(s) overdue. Late fee: %s.", book.Title, daysOverdue, fee)
		return ReturnResult{Result: s.ok(logger, useCaseReturn, msg), DaysOverdue: daysOverdue, Fee: fee}
	}
	return ReturnResult{Result: s.ok(logger, useCaseReturn, fmt.Sprintf("Returned %q on time. No late fee.", book.Title))}
}

// QuoteLateFee computes the patron's fee for the book: historical (as of the
// return date) when the loan is closed, current (as of now) when it is still
// active. Validation problems and missing records degrade to a zero-fee
// quote with an explanatory status. The error return is reserved for
// storage faults that leave the fee genuinely unknowable.
func (s *Service) QuoteLateFee(ctx context.Context, patronID string, bookID int64) (FeeQuote, error) {
	defer s.observe(useCaseQuote, time.Now())

	if !domain.IsValidPatronID(patronID) {
		return FeeQuote{Status: msgInvalidPatronID}, nil
	}

	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, catalogdom.ErrNotFound) {
			return FeeQuote{Status: msgBookNotFound}, nil
		}
		return FeeQuote{}, fmt.Errorf("lending: quote late fee: %w", err)
	}

	record, err := s.records.MostRecent(ctx, patronID, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveRecord) {
			return FeeQuote{Status: "No known borrow record or due date unavailable."}, nil
		}
		return FeeQuote{}, fmt.Errorf("lending: quote late fee: %w", err)
	}
	if record.DueDate.IsZero() {
		return FeeQuote{Status: "No known borrow record or due date unavailable."}, nil
	}

	asOf := s.now()
	status := "Not yet returned; fee calculated as of today."
	if !record.Active() {
		asOf = record.ReturnDate
		status = "Returned; historical fee at return date calculated."
	}

	daysOverdue, fee := domain.LateFee(record.DueDate, asOf)
	return FeeQuote{FeeAmount: fee, DaysOverdue: daysOverdue, Status: status}, nil
}

// StatusReport summarises the patron's active loans with per-loan fees as of
// today, the fee total, and the full borrow history. An invalid patron ID
// yields a zeroed report with an explanatory status.
func (s *Service) StatusReport(ctx context.Context, patronID string) PatronReport {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseReport),
		observability.F("patron_id", patronID),
	)
	defer s.observe(useCaseReport, time.Now())

	if !domain.IsValidPatronID(patronID) {
		return PatronReport{PatronID: patronID, Status: msgInvalidPatronID}
	}

	report := PatronReport{PatronID: patronID, Status: "Complete"}

	active, err := s.records.ListActive(ctx, patronID)
	if err != nil {
		logger.Error("active_loans_read_failed", observability.F("error", err.Error()))
		active = nil
	}

	today := s.now()
	for _, rec := range active {
		daysOverdue, fee := domain.LateFee(rec.DueDate, today)
		loan := Loan{
			BookID:      rec.BookID,
			DueDate:     rec.DueDate,
			DaysOverdue: daysOverdue,
			LateFee:     fee,
		}
		if book, err := s.books.GetByID(ctx, rec.BookID); err == nil {
			loan.Title = book.Title
		}
		report.CurrentlyBorrowed = append(report.CurrentlyBorrowed, loan)
		report.TotalFeesOwed += fee
	}
	report.NumCurrentlyBorrowed = len(report.CurrentlyBorrowed)

	history, err := s.records.History(ctx, patronID)
	if err != nil {
		logger.Error("history_read_failed", observability.F("error", err.Error()))
		history = nil
	}
	report.History = history

	return report
}

func (s *Service) ok(logger observability.Logger, useCase, msg string) Result {
	logger.Info(useCase+"_success", observability.F("message", msg))
	s.requests.Add(1, observability.L("use_case", useCase), observability.L("outcome", "success"))
	return Result{OK: true, Message: msg}
}

func (s *Service) fail(logger observability.Logger, useCase, msg string) Result {
	logger.Info(useCase+"_rejected", observability.F("message", msg))
	s.requests.Add(1, observability.L("use_case", useCase), observability.L("outcome", "failure"))
	return Result{OK: false, Message: msg}
}

func (s *Service) observe(useCase string, start time.Time) {
	s.duration.Observe(time.Since(start).Seconds(), observability.L("use_case", useCase))
}
