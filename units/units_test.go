package units

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int32
		want     string
	}{
		{"1.5", 18, "1500000000000000000"},
		{"0.5", 18, "500000000000000000"},
		{"0", 6, "0"},
		{"0.000", 6, "0"},
		{"123", 0, "123"},
		{"1.2345", 2, "123"},
		{"0.125", 2, "12"},
		{"0.135", 2, "14"},
		{"-2.5", 1, "-25"},
		{"0.000001", 6, "1"},
		{"0.0000001", 6, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToBaseUnitsRejectsDecimalsOutOfRange(t *testing.T) {
	_, err := ToBaseUnits(decimal.NewFromInt(1), MaxDecimals+1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecimalsOutOfRange))

	_, err = FromBaseUnits("1", -1)
	assert.True(t, errors.Is(err, ErrDecimalsOutOfRange))
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		units    string
		decimals int32
		want     string
	}{
		{"1500000000000000000", 18, "1.5"},
		{"5", 18, "0.000000000000000005"},
		{"0", 18, "0"},
		{"000", 3, "0"},
		{"123", 0, "123"},
		{"100", 2, "1"},
		{"-25", 1, "-2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			got, err := FromBaseUnits(tt.units, tt.decimals)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFromBaseUnitsRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "12a", "1.5", "0x10", "-"} {
		_, err := FromBaseUnits(in, 2)
		require.Error(t, err, in)

		var arithErr *ArithmeticError
		require.True(t, errors.As(err, &arithErr), in)
		assert.Equal(t, "from_base_units", arithErr.Op)
		assert.True(t, errors.Is(err, ErrNonNumeric))
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "0.1", "1.000000000000000001", "123456789.123456789",
		"0.000000000000000001", "99999999999999999999999999.5", "-7.25",
	}
	for _, v := range values {
		x := decimal.RequireFromString(v)
		for d := int32(0); d <= MaxDecimals; d++ {
			if -x.Exponent() > d {
				continue
			}
			units, err := ToBaseUnits(x, d)
			require.NoError(t, err)
			back, err := FromBaseUnits(units, d)
			require.NoError(t, err)
			assert.True(t, x.Equal(back), "%s with %d decimals came back as %s", v, d, back)
		}
	}
}

func TestAmountToTicks(t *testing.T) {
	tests := []struct {
		amount   string
		numTicks int64
		want     string
	}{
		{"1", 0, "100000000000000"},
		{"1", DefaultNumTicks, "100000000000000"},
		{"0.5", 100, "5000000000000000"},
		{"0.000000000000005", 0, "0"},
		{"0.000000000000015", 0, "2"},
		{"0.000000000000025", 0, "2"},
	}
	for _, tt := range tests {
		got, err := AmountToTicks(decimal.RequireFromString(tt.amount), tt.numTicks)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.amount)
	}
}

func TestTicksToAmount(t *testing.T) {
	got, err := TicksToAmount("100000000000000", 0)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(got))

	_, err = TicksToAmount("lots", 0)
	assert.True(t, errors.Is(err, ErrNonNumeric))

	_, err = TicksToAmount("1", -5)
	assert.True(t, errors.Is(err, ErrInvalidNumTicks))
}

func TestPriceTicks(t *testing.T) {
	ticks, err := PriceToTicks(decimal.RequireFromString("0.5"), 0)
	require.NoError(t, err)
	assert.Equal(t, "5000", ticks)

	ticks, err = PriceToTicks(decimal.RequireFromString("0.12345"), 0)
	require.NoError(t, err)
	assert.Equal(t, "1234", ticks)

	ticks, err = PriceToTicks(decimal.RequireFromString("0.12355"), 0)
	require.NoError(t, err)
	assert.Equal(t, "1236", ticks)

	price, err := TicksToPrice("5000", 0)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.5").Equal(price))

	price, err = TicksToPrice("2", 3)
	require.NoError(t, err)
	assert.Equal(t, "0.666666666666666667", price.String())
}

func TestDivHalfEven(t *testing.T) {
	tests := []struct {
		a, b   int64
		places int32
		want   string
	}{
		{1, 8, 2, "0.12"},
		{3, 8, 2, "0.38"},
		{-1, 8, 2, "-0.12"},
		{-3, 8, 2, "-0.38"},
		{3, -8, 2, "-0.38"},
		{1, 3, 0, "0"},
		{2, 3, 0, "1"},
		{5, 2, 0, "2"},
		{7, 2, 0, "4"},
		{1, 4, 2, "0.25"},
	}
	for _, tt := range tests {
		got, err := DivHalfEven(decimal.NewFromInt(tt.a), decimal.NewFromInt(tt.b), tt.places)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%d/%d = %s", tt.a, tt.b, got)
	}

	_, err := DivHalfEven(decimal.NewFromInt(1), decimal.Zero, 2)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 1.25 ")
	require.NoError(t, err)
	assert.Equal(t, "1.25", d.String())

	_, err = ParseAmount("one")
	assert.ErrorIs(t, err, ErrNonNumeric)
}

func TestExtremeExponentsRejected(t *testing.T) {
	start := time.Now()

	for _, s := range []string{"1e-2000000000", "0e-2000000000", "1e2000000000"} {
		_, err := ParseAmount(s)
		assert.ErrorIs(t, err, ErrOutOfRange, s)

		d := decimal.RequireFromString(s)
		_, err = ToBaseUnits(d, 18)
		assert.ErrorIs(t, err, ErrOutOfRange, s)
		_, err = PriceToTicks(d, 0)
		assert.ErrorIs(t, err, ErrOutOfRange, s)
		_, err = AmountToTicks(d, 0)
		assert.ErrorIs(t, err, ErrOutOfRange, s)
	}

	_, err := TicksToPrice("5e-2000000000", 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	d, err := ParseAmount("1e-96")
	require.NoError(t, err)
	got, err := ToBaseUnits(d, 18)
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	assert.Less(t, time.Since(start), time.Second)
}
