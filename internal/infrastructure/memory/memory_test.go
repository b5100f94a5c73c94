package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdom "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	lendingdom "github.com/Zhima-Mochi/library-lending/internal/domain/lending"
)

func mustBook(t *testing.T, title string, copies int) *catalogdom.Book {
	t.Helper()
	book, err := catalogdom.New(title, "Author", "1234567890123", copies)
	require.NoError(t, err)
	return book
}

func TestBookRepositoryInsertAssignsIDs(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	first := mustBook(t, "First", 2)
	second := mustBook(t, "Second", 2)
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	byISBN, err := repo.GetByISBN(ctx, "1234567890123")
	require.NoError(t, err)
	assert.NotNil(t, byISBN)

	_, err = repo.GetByID(ctx, 99)
	assert.True(t, errors.Is(err, catalogdom.ErrNotFound))
}

func TestBookRepositoryReturnsCopies(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	book := mustBook(t, "First", 2)
	require.NoError(t, repo.Insert(ctx, book))

	got, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", again.Title, "reads must not expose internal state")
}

func TestBookRepositoryAdjustAvailabilityClamps(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	book := mustBook(t, "First", 2)
	require.NoError(t, repo.Insert(ctx, book))

	require.NoError(t, repo.AdjustAvailability(ctx, book.ID, -5))
	got, _ := repo.GetByID(ctx, book.ID)
	assert.Equal(t, 0, got.AvailableCopies)

	require.NoError(t, repo.AdjustAvailability(ctx, book.ID, +10))
	got, _ = repo.GetByID(ctx, book.ID)
	assert.Equal(t, 2, got.AvailableCopies)

	err := repo.AdjustAvailability(ctx, 99, +1)
	assert.True(t, errors.Is(err, catalogdom.ErrNotFound))
}

func TestBorrowRepositoryActiveLifecycle(t *testing.T) {
	repo := NewBorrowRepository()
	ctx := context.Background()
	borrowedAt := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	rec, err := lendingdom.NewRecord("rec-1", "123456", 1, borrowedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, rec))

	active, err := repo.GetActive(ctx, "123456", 1)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", active.ID)

	count, err := repo.CountActive(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	returnedAt := borrowedAt.AddDate(0, 0, 3)
	closed, err := repo.MarkReturned(ctx, "123456", 1, returnedAt)
	require.NoError(t, err)
	assert.Equal(t, returnedAt, closed.ReturnDate)

	_, err = repo.GetActive(ctx, "123456", 1)
	assert.True(t, errors.Is(err, lendingdom.ErrNoActiveRecord))

	_, err = repo.MarkReturned(ctx, "123456", 1, returnedAt)
	assert.True(t, errors.Is(err, lendingdom.ErrNoActiveRecord))

	count, err = repo.CountActive(ctx, "123456")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBorrowRepositoryMostRecent(t *testing.T) {
	repo := NewBorrowRepository()
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.MostRecent(ctx, "123456", 1)
	assert.True(t, errors.Is(err, lendingdom.ErrNoActiveRecord))

	older, err := lendingdom.NewRecord("rec-1", "123456", 1, base)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, older))
	_, err = repo.MarkReturned(ctx, "123456", 1, base.AddDate(0, 0, 2))
	require.NoError(t, err)

	newer, err := lendingdom.NewRecord("rec-2", "123456", 1, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, newer))
	_, err = repo.MarkReturned(ctx, "123456", 1, base.AddDate(0, 0, 6))
	require.NoError(t, err)

	// Both records are closed; the later borrow wins.
	got, err := repo.MostRecent(ctx, "123456", 1)
	require.NoError(t, err)
	assert.Equal(t, "rec-2", got.ID)

	// An active record trumps any closed one regardless of dates.
	active, err := lendingdom.NewRecord("rec-3", "123456", 1, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, active))
	got, err = repo.MostRecent(ctx, "123456", 1)
	require.NoError(t, err)
	assert.Equal(t, "rec-3", got.ID)
}

func TestBorrowRepositoryHistoryOrder(t *testing.T) {
	repo := NewBorrowRepository()
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"rec-1", "rec-2", "rec-3"} {
		rec, err := lendingdom.NewRecord(id, "123456", int64(i+1), base.AddDate(0, 0, i))
		require.NoError(t, err)
		require.NoError(t, repo.Insert(ctx, rec))
	}

	history, err := repo.History(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "rec-3", history[0].ID)
	assert.Equal(t, "rec-1", history[2].ID)

	other, err := repo.History(ctx, "654321")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepositoriesConcurrentAccess(t *testing.T) {
	books := NewBookRepository()
	records := NewBorrowRepository()
	ctx := context.Background()

	book := mustBook(t, "Hot Book", 5)
	require.NoError(t, books.Insert(ctx, book))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := lendingdom.NewRecord("rec", "123456", book.ID, time.Now())
			if err == nil {
				_ = records.Insert(ctx, rec)
			}
			_ = books.AdjustAvailability(ctx, book.ID, -1)
			_, _ = books.GetByID(ctx, book.ID)
			_, _ = records.CountActive(ctx, "123456")
		}(i)
	}
	wg.Wait()

	got, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.AvailableCopies, 0)
}
