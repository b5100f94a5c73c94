package catalog

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrNotFound        = errors.New("catalog: book not found")
	ErrTitleRequired   = errors.New("catalog: title is required")
	ErrTitleTooLong    = errors.New("catalog: title must be at most 200 characters")
	ErrAuthorRequired  = errors.New("catalog: author is required")
	ErrAuthorTooLong   = errors.New("catalog: author must be at most 100 characters")
	ErrInvalidISBN     = errors.New("catalog: isbn must be exactly 13 digits")
	ErrInvalidCopies   = errors.New("catalog: total copies must be a positive integer")
	ErrNoCopyAvailable = errors.New("catalog: no copies available")
)

const (
	maxTitleLen  = 200
	maxAuthorLen = 100
	isbnLen      = 13
)

// Book is a catalog entry. AvailableCopies is mutated only through
// borrow (-1) and return (+1, clamped to TotalCopies).
type Book struct {
	ID              int64
	ISBN            string
	Title           string
	Author          string
	TotalCopies     int
	AvailableCopies int
}

// New validates the catalog fields and returns a Book with all copies
// available. Leading and trailing whitespace in title and author is dropped.
func New(title, author, isbn string, totalCopies int) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitleLen {
		return nil, ErrTitleTooLong
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}
	if len(author) > maxAuthorLen {
		return nil, ErrAuthorTooLong
	}
	if !IsValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}
	if totalCopies <= 0 {
		return nil, ErrInvalidCopies
	}

	return &Book{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}, nil
}

// IsValidISBN reports whether s is exactly 13 ASCII digits.
func IsValidISBN(s string) bool {
	if len(s) != isbnLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Checkout hands out one copy. It never lets AvailableCopies go negative.
func (b *Book) Checkout() error {
	if b.AvailableCopies <= 0 {
		return ErrNoCopyAvailable
	}
	b.AvailableCopies--
	return nil
}

// PutBack restores one copy, clamped so AvailableCopies never exceeds
// TotalCopies. It reports whether the counter actually moved.
func (b *Book) PutBack() bool {
	if b.AvailableCopies >= b.TotalCopies {
		return false
	}
	b.AvailableCopies++
	return true
}
