// Package postgres implements the catalog and lending repositories on
// PostgreSQL via pgx. It is selected when DB_SOURCE is set; otherwise the
// in-memory repositories serve the same ports.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	catalogdom "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	lendingdom "github.com/Zhima-Mochi/library-lending/internal/domain/lending"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Store{db: pool}, nil
}

func (s *Store) Close() { s.db.Close() }

// EnsureSchema creates the two tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			isbn TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			total_copies INT NOT NULL CHECK (total_copies > 0),
			available_copies INT NOT NULL CHECK (available_copies BETWEEN 0 AND total_copies)
		);
		CREATE TABLE IF NOT EXISTS borrow_records (
			id TEXT PRIMARY KEY,
			patron_id TEXT NOT NULL,
			book_id BIGINT NOT NULL REFERENCES books(id),
			borrow_date TIMESTAMPTZ NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			return_date TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_borrow_records_patron ON borrow_records(patron_id);
	`)
	return errors.Wrap(err, "ensure schema")
}

// Books returns the catalog repository view of the store.
func (s *Store) Books() *BookRepository { return &BookRepository{db: s.db} }

// Borrows returns the borrow-record repository view of the store.
func (s *Store) Borrows() *BorrowRepository { return &BorrowRepository{db: s.db} }

type BookRepository struct {
	db *pgxpool.Pool
}

const bookColumns = "id, isbn, title, author, total_copies, available_copies"

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*catalogdom.Book, error) {
	return r.getBook(ctx, "SELECT "+bookColumns+" FROM books WHERE id = $1", id)
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*catalogdom.Book, error) {
	return r.getBook(ctx, "SELECT "+bookColumns+" FROM books WHERE isbn = $1", isbn)
}

func (r *BookRepository) getBook(ctx context.Context, query string, arg any) (*catalogdom.Book, error) {
	var b catalogdom.Book
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.TotalCopies, &b.AvailableCopies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogdom.ErrNotFound
		}
		return nil, errors.Wrap(err, "query book")
	}
	return &b, nil
}

func (r *BookRepository) GetAll(ctx context.Context) ([]*catalogdom.Book, error) {
	rows, err := r.db.Query(ctx, "SELECT "+bookColumns+" FROM books ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "query books")
	}
	defer rows.Close()

	var out []*catalogdom.Book
	for rows.Next() {
		var b catalogdom.Book
		if err := rows.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, errors.Wrap(err, "scan book")
		}
		out = append(out, &b)
	}
	return out, errors.Wrap(rows.Err(), "iterate books")
}

func (r *BookRepository) Insert(ctx context.Context, book *catalogdom.Book) error {
	err := r.db.QueryRow(ctx,
		"INSERT INTO books (isbn, title, author, total_copies, available_copies) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		book.ISBN, book.Title, book.Author, book.TotalCopies, book.AvailableCopies,
	).Scan(&book.ID)
	return errors.Wrap(err, "insert book")
}

func (r *BookRepository) AdjustAvailability(ctx context.Context, bookID int64, delta int) error {
	// Clamp in SQL so the invariant holds even against concurrent writers.
	tag, err := r.db.Exec(ctx,
		"UPDATE books SET available_copies = LEAST(GREATEST(available_copies + $1, 0), total_copies) WHERE id = $2",
		delta, bookID,
	)
	if err != nil {
		return errors.Wrap(err, "update availability")
	}
	if tag.RowsAffected() == 0 {
		return catalogdom.ErrNotFound
	}
	return nil
}

type BorrowRepository struct {
	db *pgxpool.Pool
}

const recordColumns = "id, patron_id, book_id, borrow_date, due_date, return_date"

func (r *BorrowRepository) Insert(ctx context.Context, record *lendingdom.Record) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO borrow_records (id, patron_id, book_id, borrow_date, due_date) VALUES ($1, $2, $3, $4, $5)",
		record.ID, record.PatronID, record.BookID, record.BorrowDate, record.DueDate,
	)
	return errors.Wrap(err, "insert borrow record")
}

func (r *BorrowRepository) GetActive(ctx context.Context, patronID string, bookID int64) (*lendingdom.Record, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM borrow_records WHERE patron_id = $1 AND book_id = $2 AND return_date IS NULL ORDER BY borrow_date DESC LIMIT 1",
		patronID, bookID,
	)
	return scanRecord(row)
}

func (r *BorrowRepository) MostRecent(ctx context.Context, patronID string, bookID int64) (*lendingdom.Record, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM borrow_records WHERE patron_id = $1 AND book_id = $2 ORDER BY (return_date IS NULL) DESC, borrow_date DESC LIMIT 1",
		patronID, bookID,
	)
	return scanRecord(row)
}

func (r *BorrowRepository) MarkReturned(ctx context.Context, patronID string, bookID int64, at time.Time) (*lendingdom.Record, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE borrow_records SET return_date = $3
		WHERE id = (
			SELECT id FROM borrow_records
			WHERE patron_id = $1 AND book_id = $2 AND return_date IS NULL
			ORDER BY borrow_date DESC LIMIT 1
		)
		RETURNING `+recordColumns,
		patronID, bookID, at,
	)
	return scanRecord(row)
}

func (r *BorrowRepository) CountActive(ctx context.Context, patronID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM borrow_records WHERE patron_id = $1 AND return_date IS NULL",
		patronID,
	).Scan(&n)
	return n, errors.Wrap(err, "count active records")
}

func (r *BorrowRepository) ListActive(ctx context.Context, patronID string) ([]*lendingdom.Record, error) {
	return r.listRecords(ctx,
		"SELECT "+recordColumns+" FROM borrow_records WHERE patron_id = $1 AND return_date IS NULL ORDER BY borrow_date DESC",
		patronID,
	)
}

func (r *BorrowRepository) History(ctx context.Context, patronID string) ([]*lendingdom.Record, error) {
	return r.listRecords(ctx,
		"SELECT "+recordColumns+" FROM borrow_records WHERE patron_id = $1 ORDER BY borrow_date DESC",
		patronID,
	)
}

func (r *BorrowRepository) listRecords(ctx context.Context, query string, args ...any) ([]*lendingdom.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query borrow records")
	}
	defer rows.Close()

	var out []*lendingdom.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "iterate borrow records")
}

func scanRecord(row pgx.Row) (*lendingdom.Record, error) {
	var rec lendingdom.Record
	var returned *time.Time
	err := row.Scan(&rec.ID, &rec.PatronID, &rec.BookID, &rec.BorrowDate, &rec.DueDate, &returned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lendingdom.ErrNoActiveRecord
		}
		return nil, errors.Wrap(err, "scan borrow record")
	}
	if returned != nil {
		rec.ReturnDate = *returned
	}
	return &rec, nil
}
