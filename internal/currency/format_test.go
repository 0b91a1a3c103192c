package currency

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		places   int
		thousand string
		dec      string
		want     string
	}{
		{name: "rounded and grouped", amount: 1234567.5, places: 0, thousand: ",", dec: ".", want: "1,234,568"},
		{name: "european separators", amount: 1234.5, places: 2, thousand: ".", dec: ",", want: "1.234,50"},
		{name: "no grouping under thousand", amount: 999, places: 2, thousand: ",", dec: ".", want: "999.00"},
		{name: "exact thousand", amount: 1000, places: 0, thousand: ",", dec: ".", want: "1,000"},
		{name: "negative amount", amount: -1234567.891, places: 2, thousand: ",", dec: ".", want: "-1,234,567.89"},
		{name: "negative below thousand", amount: -999, places: 0, thousand: ",", dec: ".", want: "-999"},
		{name: "empty separator", amount: 123456, places: 0, thousand: "", dec: ".", want: "123456"},
		{name: "half cent rounds up", amount: 0.005, places: 2, thousand: ",", dec: ".", want: "0.01"},
		{name: "negative places", amount: 12.7, places: -2, thousand: ",", dec: ".", want: "13"},
		{name: "three places", amount: 1.2345, places: 3, thousand: ",", dec: ".", want: "1.235"},
		{name: "zero", amount: 0, places: 2, thousand: ",", dec: ".", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNumber(tt.amount, tt.places, tt.thousand, tt.dec)
			if got != tt.want {
				t.Fatalf("FormatNumber(%v, %d) = %q, want %q", tt.amount, tt.places, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		d      Descriptor
		want   string
	}{
		{
			name:   "symbol before",
			amount: 1234567.5,
			d:      Descriptor{Symbol: "Rs", Position: PositionBefore, DecimalPlaces: 0, ThousandSeparator: ",", DecimalSeparator: "."},
			want:   "Rs1,234,568",
		},
		{
			name:   "symbol after",
			amount: 1234.5,
			d:      Descriptor{Symbol: "€", Position: PositionAfter, DecimalPlaces: 2, ThousandSeparator: ".", DecimalSeparator: ","},
			want:   "1.234,50 €",
		},
		{
			name:   "unknown position renders before",
			amount: 12.6,
			d:      Descriptor{Symbol: "$", Position: "middle", DecimalPlaces: 2, ThousandSeparator: ",", DecimalSeparator: "."},
			want:   "$12.60",
		},
		{
			name:   "zero descriptor degrades",
			amount: 1234.5,
			d:      Descriptor{},
			want:   "1235",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.amount, tt.d); got != tt.want {
				t.Fatalf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNumber_DigitsReconstructValue(t *testing.T) {
	amounts := []float64{0, 7, 999.99, 1000, 12345.678, 9876543.21, 1234567.5, 100000000}

	for _, amount := range amounts {
		for places := 0; places <= 3; places++ {
			s := FormatNumber(amount, places, ",", ".")
			digits := strings.ReplaceAll(s, ",", "")

			got, err := decimal.NewFromString(digits)
			if err != nil {
				t.Fatalf("parse %q: %v", digits, err)
			}
			want := decimal.NewFromFloat(amount).Round(int32(places))
			if !got.Equal(want) {
				t.Fatalf("FormatNumber(%v, %d) = %q reconstructs %s, want %s", amount, places, s, got, want)
			}
			if places > 0 {
				_, frac, _ := strings.Cut(s, ".")
				if len(frac) != places {
					t.Fatalf("FormatNumber(%v, %d) = %q has %s fractional digits", amount, places, s, strconv.Itoa(len(frac)))
				}
			}
		}
	}
}
