package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
	"github.com/Zhima-Mochi/library-lending/internal/observability/logctx"
)

const (
	catalogService = "catalog-service"
	useCaseAddBook = "catalog.add_book"
	useCaseSearch  = "catalog.search"
)

// Result is the outcome of a catalog operation. Operations never fail with
// an error across this boundary; they report success plus a human-readable
// message.
type Result struct {
	OK      bool
	Message string
}

// SearchKind selects the match rule for Search.
type SearchKind string

const (
	SearchByTitle  SearchKind = "title"
	SearchByAuthor SearchKind = "author"
	SearchByISBN   SearchKind = "isbn"
)

type Service struct {
	books domain.Repository

	log      observability.Logger
	requests observability.Counter
	duration observability.Histogram
}

func NewService(books domain.Repository, tel observability.Telemetry) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		books:    books,
		log:      tel.Logger().With(observability.F("service", catalogService)),
		requests: tel.Counter(observability.MUsecaseRequests),
		duration: tel.Histogram(observability.MUsecaseDuration),
	}
}

// AddBook validates the catalog fields and inserts a new book with all
// copies available. Adding an ISBN that already exists is an idempotent
// success: no duplicate row is created and the same message is returned.
func (s *Service) AddBook(ctx context.Context, title, author, isbn string, totalCopies int) Result {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseAddBook))
	defer s.observe(useCaseAddBook, time.Now())

	book, err := domain.New(title, author, isbn, totalCopies)
	if err != nil {
		return s.fail(logger, useCaseAddBook, validationMessage(err))
	}

	existing, err := s.books.GetByISBN(ctx, book.ISBN)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("isbn_lookup_failed", observability.F("isbn", book.ISBN), observability.F("error", err.Error()))
		return s.fail(logger, useCaseAddBook, "Database error occurred while adding the book.")
	}
	if existing != nil {
		// Dedup by ISBN: report the add as successful without a second row.
		return s.ok(logger, useCaseAddBook, addedMessage(book.Title))
	}

	if err := s.books.Insert(ctx, book); err != nil {
		logger.Error("book_insert_failed", observability.F("isbn", book.ISBN), observability.F("error", err.Error()))
		return s.fail(logger, useCaseAddBook, "Database error occurred while adding the book.")
	}

	return s.ok(logger, useCaseAddBook, addedMessage(book.Title))
}

// Search matches catalog entries against term. Title and author searches are
// partial and case-insensitive; ISBN searches are exact. Any other kind
// falls back to matching title or author. A blank term matches nothing.
func (s *Service) Search(ctx context.Context, term string, kind SearchKind) []*domain.Book {
	defer s.observe(useCaseSearch, time.Now())

	q := strings.TrimSpace(term)
	if q == "" {
		return nil
	}

	books, err := s.books.GetAll(ctx)
	if err != nil {
		logctx.FromOr(ctx, s.log).Error("catalog_read_failed", observability.F("error", err.Error()))
		return nil
	}

	var results []*domain.Book
	ql := strings.ToLower(q)
	for _, b := range books {
		var match bool
		switch kind {
		case SearchByISBN:
			match = b.ISBN == q
		case SearchByTitle:
			match = strings.Contains(strings.ToLower(b.Title), ql)
		case SearchByAuthor:
			match = strings.Contains(strings.ToLower(b.Author), ql)
		default:
			match = strings.Contains(strings.ToLower(b.Title), ql) ||
				strings.Contains(strings.ToLower(b.Author), ql)
		}
		if match {
			results = append(results, b)
		}
	}
	return results
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

func addedMessage(title string) string {
	return `Book "` + title + `" has been successfully added to the catalog.`
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		return "Title is required."
	case errors.Is(err, domain.ErrTitleTooLong):
		return "Title must be less than 200 characters."
	case errors.Is(err, domain.ErrAuthorRequired):
		return "Author is required."
	case errors.Is(err, domain.ErrAuthorTooLong):
		return "Author must be less than 100 characters."
	case errors.Is(err, domain.ErrInvalidISBN):
		return "ISBN must be exactly 13 digits."
	case errors.Is(err, domain.ErrInvalidCopies):
		return "Total copies must be a positive integer."
	default:
		return "Invalid book details."
	}
}
