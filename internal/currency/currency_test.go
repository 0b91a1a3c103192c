package currency

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/pricing"
)

func testRates() RateTable {
	return RateTable{
		Base: "PKR",
		Rates: map[string]float64{
			"USD": 0.0036,
			"AED": 0.0132,
			"EUR": 0.0033,
		},
	}
}

func TestConvert(t *testing.T) {
	rates := testRates()

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{name: "base to target", amount: 100, from: "PKR", to: "USD", want: 0.36},
		{name: "target to base", amount: 0.36, from: "USD", to: "PKR", want: 100},
		{name: "identity", amount: 42.5, from: "XXX", to: "XXX", want: 42.5},
		{name: "unknown target keeps amount", amount: 50, from: "PKR", to: "JPY", want: 50},
		{name: "unknown source keeps amount", amount: 50, from: "JPY", to: "PKR", want: 50},
		{name: "cross with unknown source", amount: 50, from: "JPY", to: "USD", want: 50},
		{name: "cross with unknown target", amount: 50, from: "USD", to: "JPY", want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.amount, tt.from, tt.to, rates)
			if got != tt.want {
				t.Fatalf("Convert(%v, %s, %s) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvert_CrossRate(t *testing.T) {
	got := Convert(1, "USD", "AED", testRates())
	assert.InDelta(t, 0.0132/0.0036, got, 1e-9)
}

func TestConvert_ZeroRateIsMissing(t *testing.T) {
	rates := RateTable{Base: "PKR", Rates: map[string]float64{"USD": 0}}
	assert.Equal(t, 10.0, Convert(10, "PKR", "USD", rates))
}

func TestConvert_RoundTrip(t *testing.T) {
	rates := testRates()
	codes := []string{"PKR", "USD", "AED", "EUR"}
	amounts := []float64{0, 1, 99.99, 3500, 123456.78}

	for _, a := range codes {
		for _, b := range codes {
			for _, x := range amounts {
				back := Convert(Convert(x, a, b, rates), b, a, rates)
				assert.InDelta(t, x, back, 1e-6, "%v %s -> %s -> %s", x, a, b, a)
			}
		}
	}
}

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "PKR", table.Base())

	codes := make([]string, 0)
	for _, d := range table.Currencies() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{"PKR", "USD", "AED", "SAR", "EUR", "GBP"}, codes)

	pkr, ok := table.Descriptor("PKR")
	require.True(t, ok)
	assert.Equal(t, "Rs", pkr.Symbol)
	assert.Equal(t, PositionBefore, pkr.Position)
	assert.Equal(t, 0, pkr.DecimalPlaces)

	assert.True(t, table.Supports("USD"))
	assert.False(t, table.Supports("JPY"))
	assert.Equal(t, 0.36, table.Convert(100, "PKR", "USD"))
	assert.Equal(t, "Rs1,234,568", table.Format(1234567.5, "PKR"))
}

func TestTable_RatesIsCopy(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	rates := table.Rates()
	rates.Rates["USD"] = 1000

	assert.Equal(t, 0.36, table.Convert(100, "PKR", "USD"))
	assert.Equal(t, 1.0, table.Rates().Rates["PKR"])
}

func TestNew_Validation(t *testing.T) {
	pkr := Descriptor{Code: "PKR", Symbol: "Rs"}

	tests := []struct {
		name        string
		descriptors []Descriptor
		rates       RateTable
	}{
		{
			name:        "empty base",
			descriptors: []Descriptor{pkr},
			rates:       RateTable{},
		},
		{
			name:        "negative rate",
			descriptors: []Descriptor{pkr},
			rates:       RateTable{Base: "PKR", Rates: map[string]float64{"USD": -1}},
		},
		{
			name:        "base rate not one",
			descriptors: []Descriptor{pkr},
			rates:       RateTable{Base: "PKR", Rates: map[string]float64{"PKR": 2}},
		},
		{
			name:        "unknown position",
			descriptors: []Descriptor{{Code: "PKR", Position: "left"}},
			rates:       RateTable{Base: "PKR"},
		},
		{
			name:        "duplicate code",
			descriptors: []Descriptor{pkr, pkr},
			rates:       RateTable{Base: "PKR"},
		},
		{
			name:        "empty code",
			descriptors: []Descriptor{pkr, {Symbol: "$"}},
			rates:       RateTable{Base: "PKR"},
		},
		{
			name:        "base not described",
			descriptors: []Descriptor{{Code: "USD"}},
			rates:       RateTable{Base: "PKR"},
		},
		{
			name:        "too many decimal places",
			descriptors: []Descriptor{{Code: "PKR", DecimalPlaces: 9}},
			rates:       RateTable{Base: "PKR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.descriptors, tt.rates)
			if !errors.Is(err, ErrInvalidTable) {
				t.Fatalf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestNew_DefaultsPositionAndBaseRate(t *testing.T) {
	table, err := New([]Descriptor{{Code: "PKR", Symbol: "Rs"}}, RateTable{Base: "PKR"})
	require.NoError(t, err)

	d, ok := table.Descriptor("PKR")
	require.True(t, ok)
	assert.Equal(t, PositionBefore, d.Position)
	assert.Equal(t, 1.0, table.Rates().Rates["PKR"])
}

func TestWithRates(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	updated, err := table.WithRates(RateTable{Base: "PKR", Rates: map[string]float64{"USD": 0.004}})
	require.NoError(t, err)

	assert.Equal(t, 0.4, updated.Convert(100, "PKR", "USD"))
	assert.Equal(t, 0.36, table.Convert(100, "PKR", "USD"))
	assert.Equal(t, table.Currencies(), updated.Currencies())

	_, err = table.WithRates(RateTable{Base: "USD", Rates: map[string]float64{"PKR": 277}})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestParseAndLoad(t *testing.T) {
	_, err := Parse([]byte("{"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "pricing.json")
	data := `{"currencies":[{"code":"USD","symbol":"$","decimalPlaces":2,"thousandSeparator":",","decimalSeparator":"."}],
		"exchangeRates":{"base":"USD","rates":{"EUR":0.9}}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "USD", table.Base())
	assert.Equal(t, "$1,000.00", table.Format(1000, "USD"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPriceBreakdown(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	t.Run("usd", func(t *testing.T) {
		b, err := table.PriceBreakdown(3500, 31, "USD")
		require.NoError(t, err)

		assert.Equal(t, "USD", b.Currency)
		assert.Equal(t, 31.0, b.Percentage)

		assert.Equal(t, 3500.0, b.Original.Amount)
		assert.InDelta(t, 12.6, b.Original.Converted, 1e-9)
		assert.Equal(t, "$12.60", b.Original.Formatted)

		assert.Equal(t, 2415.0, b.Discounted.Amount)
		assert.InDelta(t, 8.694, b.Discounted.Converted, 1e-9)
		assert.Equal(t, "$8.69", b.Discounted.Formatted)

		assert.Equal(t, 1085.0, b.Savings.Amount)
		assert.InDelta(t, 3.906, b.Savings.Converted, 1e-9)
		assert.Equal(t, "$3.91", b.Savings.Formatted)
	})

	t.Run("base currency", func(t *testing.T) {
		b, err := table.PriceBreakdown(3500, 31, "PKR")
		require.NoError(t, err)

		assert.Equal(t, "Rs3,500", b.Original.Formatted)
		assert.Equal(t, "Rs2,415", b.Discounted.Formatted)
		assert.Equal(t, "Rs1,085", b.Savings.Formatted)
	})

	t.Run("symbol after", func(t *testing.T) {
		b, err := table.PriceBreakdown(3500, 31, "SAR")
		require.NoError(t, err)

		assert.Equal(t, "47.25 ر.س", b.Original.Formatted)
	})

	t.Run("unknown currency degrades", func(t *testing.T) {
		b, err := table.PriceBreakdown(3500, 31, "JPY")
		require.NoError(t, err)

		assert.Equal(t, 3500.0, b.Original.Converted)
		assert.Equal(t, "3500", b.Original.Formatted)
		assert.Equal(t, "JPY", b.Currency)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := table.PriceBreakdown(-1, 10, "USD")
		assert.ErrorIs(t, err, pricing.ErrInvalidArgument)

		_, err = table.PriceBreakdown(100, 101, "USD")
		assert.ErrorIs(t, err, pricing.ErrInvalidArgument)
	})
}
