package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
)

// BookRepository is an in-memory catalog store. It satisfies
// catalog.Repository and is the default storage when no database is
// configured.
type BookRepository struct {
	mu     sync.RWMutex
	nextID int64
	books  map[int64]*domain.Book
}

func NewBookRepository() *BookRepository {
	return &BookRepository{
		nextID: 1,
		books:  make(map[int64]*domain.Book),
	}
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneBook(book), nil
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, book := range r.books {
		if book.ISBN == isbn {
			return cloneBook(book), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *BookRepository) GetAll(ctx context.Context) ([]*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Book, 0, len(r.books))
	for _, book := range r.books {
		out = append(out, cloneBook(book))
	}
	return out, nil
}

func (r *BookRepository) Insert(ctx context.Context, book *domain.Book) error {
	_ = ctx
	if book == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneBook(book)
	stored.ID = r.nextID
	r.nextID++
	r.books[stored.ID] = stored
	book.ID = stored.ID
	return nil
}

func (r *BookRepository) AdjustAvailability(ctx context.Context, bookID int64, delta int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrNotFound
	}

	next := book.AvailableCopies + delta
	if next < 0 {
		next = 0
	}
	if next > book.TotalCopies {
		next = book.TotalCopies
	}
	book.AvailableCopies = next
	return nil
}

func cloneBook(book *domain.Book) *domain.Book {
	if book == nil {
		return nil
	}
	clone := *book
	return &clone
}
