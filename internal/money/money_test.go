package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(1000), Cents(decimal.NewFromFloat(10.00)))
	assert.Equal(t, int64(1001), Cents(decimal.NewFromFloat(10.005)))
	assert.Equal(t, int64(1000), Cents(decimal.NewFromFloat(10.004)))
	assert.Equal(t, int64(-350), Cents(decimal.NewFromFloat(-3.50)))
}

func TestFromCentsRoundTrip(t *testing.T) {
	for _, c := range []int64{0, 1, 99, 100, 12345, -250} {
		assert.Equal(t, c, Cents(FromCents(c)))
	}
	assert.Equal(t, "103.47", FromCents(10347).StringFixed(2))
}

func TestSplitEqualExact(t *testing.T) {
	parts := SplitEqual(9000, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, []int64{3000, 3000, 3000}, parts)
}

func TestSplitEqualResidualOnLast(t *testing.T) {
	// 100.00 among 3: 33.33 + 33.33 + 33.34
	parts := SplitEqual(10000, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, int64(3333), parts[0])
	assert.Equal(t, int64(3333), parts[1])
	assert.Equal(t, int64(3334), parts[2])

	var sum int64
	for _, p := range parts {
		sum += p
	}
	assert.Equal(t, int64(10000), sum)
}

func TestSplitEqualSinglePayer(t *testing.T) {
	assert.Equal(t, []int64{10347}, SplitEqual(10347, 1))
}

func TestSplitEqualInvalidN(t *testing.T) {
	assert.Nil(t, SplitEqual(1000, 0))
	assert.Nil(t, SplitEqual(1000, -2))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(5000), Percent(10000, decimal.NewFromInt(50)))
	// 33.33% of 100.00 → 33.33
	assert.Equal(t, int64(3333), Percent(10000, decimal.NewFromFloat(33.33)))
	// 12.5% of 99.99 → 12.4988 rounds to 12.50
	assert.Equal(t, int64(1250), Percent(9999, decimal.NewFromFloat(12.5)))
}
