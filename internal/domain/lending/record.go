package lending

import (
	"errors"
	"time"
	"unicode"
)

var (
	ErrInvalidPatronID = errors.New("lending: patron id must be exactly 6 digits")
	ErrNoActiveRecord  = errors.New("lending: no active borrow record")
	ErrAlreadyReturned = errors.New("lending: record already returned")
	ErrLimitExceeded   = errors.New("lending: patron borrow limit reached")
)

const (
	// LoanPeriod is how long a patron may keep a book before fees accrue.
	LoanPeriod = 14 * 24 * time.Hour
	// MaxActiveLoans is the hard cap on simultaneous active borrow records
	// per patron.
	MaxActiveLoans = 5

	patronIDLen = 6
)

// Record tracks one borrow of one book by one patron. A zero ReturnDate
// means the loan is still active. Records are never deleted.
type Record struct {
	ID         string
	PatronID   string
	BookID     int64
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate time.Time
}

// NewRecord opens a loan starting at borrowDate with the standard loan period.
func NewRecord(id, patronID string, bookID int64, borrowDate time.Time) (*Record, error) {
	if !IsValidPatronID(patronID) {
		return nil, ErrInvalidPatronID
	}
	return &Record{
		ID:         id,
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.Add(LoanPeriod),
	}, nil
}

// Active reports whether the book is still out.
func (r *Record) Active() bool { return r.ReturnDate.IsZero() }

// MarkReturned closes the loan at the given time. It may be applied
// exactly once per record.
func (r *Record) MarkReturned(at time.Time) error {
	if !r.Active() {
		return ErrAlreadyReturned
	}
	r.ReturnDate = at
	return nil
}

// IsValidPatronID reports whether s is exactly 6 ASCII digits.
func IsValidPatronID(s string) bool {
	if len(s) != patronIDLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
