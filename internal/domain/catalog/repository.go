package catalog

import "context"

// Repository is the storage port for catalog entries.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	GetAll(ctx context.Context) ([]*Book, error)
	Insert(ctx context.Context, book *Book) error
	// AdjustAvailability applies delta to the book's available-copy counter.
	// Implementations must keep the counter within [0, total_copies].
	AdjustAvailability(ctx context.Context, bookID int64, delta int) error
}
