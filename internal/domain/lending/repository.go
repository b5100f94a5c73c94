package lending

import (
	"context"
	"time"
)

// Repository is the storage port for borrow records. Reads of the active
// record and the mark-returned write are deliberately separate operations.
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	// GetActive returns the patron's active record for the book, or
	// ErrNoActiveRecord.
	GetActive(ctx context.Context, patronID string, bookID int64) (*Record, error)
	// MostRecent returns the patron's active record for the book if one
	// exists, otherwise the most recently opened record for the pair, or
	// ErrNoActiveRecord when the patron never borrowed the book.
	MostRecent(ctx context.Context, patronID string, bookID int64) (*Record, error)
	// MarkReturned closes the active record for the pair at the given time
	// and returns the updated record, or ErrNoActiveRecord.
	MarkReturned(ctx context.Context, patronID string, bookID int64, at time.Time) (*Record, error)
	CountActive(ctx context.Context, patronID string) (int, error)
	ListActive(ctx context.Context, patronID string) ([]*Record, error)
	// History returns every record for the patron, active and returned,
	// most recent first.
	History(ctx context.Context, patronID string) ([]*Record, error)
}
