package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/library-lending/internal/domain/lending"
)

// BorrowRepository is an in-memory borrow-record store satisfying
// lending.Repository. Records are append-only; a return mutates exactly one
// record's ReturnDate.
type BorrowRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

func NewBorrowRepository() *BorrowRepository {
	return &BorrowRepository{}
}

func (r *BorrowRepository) Insert(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, cloneRecord(record))
	return nil
}

func (r *BorrowRepository) GetActive(ctx context.Context, patronID string, bookID int64) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	if rec := r.findActive(patronID, bookID); rec != nil {
		return cloneRecord(rec), nil
	}
	return nil, domain.ErrNoActiveRecord
}

func (r *BorrowRepository) MostRecent(ctx context.Context, patronID string, bookID int64) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	if rec := r.findActive(patronID, bookID); rec != nil {
		return cloneRecord(rec), nil
	}

	var latest *domain.Record
	for _, rec := range r.records {
		if rec.PatronID != patronID || rec.BookID != bookID {
			continue
		}
		if latest == nil || rec.BorrowDate.After(latest.BorrowDate) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, domain.ErrNoActiveRecord
	}
	return cloneRecord(latest), nil
}

func (r *BorrowRepository) MarkReturned(ctx context.Context, patronID string, bookID int64, at time.Time) (*domain.Record, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findActive(patronID, bookID)
	if rec == nil {
		return nil, domain.ErrNoActiveRecord
	}
	if err := rec.MarkReturned(at); err != nil {
		return nil, err
	}
	return cloneRecord(rec), nil
}

func (r *BorrowRepository) CountActive(ctx context.Context, patronID string) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.records {
		if rec.PatronID == patronID && rec.Active() {
			count++
		}
	}
	return count, nil
}

func (r *BorrowRepository) ListActive(ctx context.Context, patronID string) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Record
	for _, rec := range r.records {
		if rec.PatronID == patronID && rec.Active() {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (r *BorrowRepository) History(ctx context.Context, patronID string) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Record
	for _, rec := range r.records {
		if rec.PatronID == patronID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BorrowDate.After(out[j].BorrowDate)
	})
	return out, nil
}

// findActive assumes the caller holds the lock.
func (r *BorrowRepository) findActive(patronID string, bookID int64) *domain.Record {
	for _, rec := range r.records {
		if rec.PatronID == patronID && rec.BookID == bookID && rec.Active() {
			return rec
		}
	}
	return nil
}

func cloneRecord(rec *domain.Record) *domain.Record {
	if rec == nil {
		return nil
	}
	clone := *rec
	return &clone
}
