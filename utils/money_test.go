package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5, "usd"))
	assert.Equal(t, "$0.00", FormatMoney(0, "usd"))
	assert.Equal(t, "$10.00", FormatMoney(9.999, "not-a-code"))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(100), ToMinorUnits(1))
	assert.InDelta(t, 19.99, FromMinorUnits(1999), 1e-9)
	assert.InDelta(t, 0.13, RoundCents(0.125), 1e-9)
}
