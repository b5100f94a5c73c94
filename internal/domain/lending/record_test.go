package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordSetsDueDate(t *testing.T) {
	borrowed := time.Date(2026, time.May, 10, 15, 30, 0, 0, time.UTC)

	rec, err := NewRecord("rec-1", "123456", 42, borrowed)
	require.NoError(t, err)

	assert.Equal(t, borrowed.AddDate(0, 0, 14), rec.DueDate)
	assert.True(t, rec.Active())
}

func TestNewRecordRejectsBadPatronID(t *testing.T) {
	for _, patronID := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		_, err := NewRecord("rec-1", patronID, 42, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPatronID, "patron id %q", patronID)
	}
}

func TestMarkReturnedOnlyOnce(t *testing.T) {
	rec, err := NewRecord("rec-1", "123456", 42, time.Now())
	require.NoError(t, err)

	returnedAt := time.Now().Add(time.Hour)
	require.NoError(t, rec.MarkReturned(returnedAt))
	assert.False(t, rec.Active())
	assert.Equal(t, returnedAt, rec.ReturnDate)

	assert.ErrorIs(t, rec.MarkReturned(time.Now()), ErrAlreadyReturned)
}

func TestIsValidPatronID(t *testing.T) {
	assert.True(t, IsValidPatronID("000000"))
	assert.True(t, IsValidPatronID("987654"))
	assert.False(t, IsValidPatronID("98765"))
	assert.False(t, IsValidPatronID("9876543"))
	assert.False(t, IsValidPatronID("98765x"))
	assert.False(t, IsValidPatronID("１２３４５６")) // full-width digits are not ASCII
}
