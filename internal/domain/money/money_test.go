package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "$0.00", Cents(0).String())
	assert.Equal(t, "$0.50", Cents(50).String())
	assert.Equal(t, "$6.50", Cents(650).String())
	assert.Equal(t, "$15.00", Cents(1500).String())
	assert.Equal(t, "$1000.00", Cents(100000).String())
	assert.Equal(t, "-$3.25", Cents(-325).String())
}

func TestFromDollars(t *testing.T) {
	assert.Equal(t, Cents(1050), FromDollars(10.50))
	assert.Equal(t, Cents(1), FromDollars(0.01))
	assert.Equal(t, Cents(0), FromDollars(0))
	assert.Equal(t, Cents(-500), FromDollars(-5.00))
	assert.Equal(t, Cents(1501), FromDollars(15.01))
}
