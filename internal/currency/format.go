package currency

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber округляет сумму до decimalPlaces знаков и расставляет разделители разрядов.
func FormatNumber(amount float64, decimalPlaces int, thousandSeparator, decimalSeparator string) string {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	fixed := decimal.NewFromFloat(amount).StringFixed(int32(decimalPlaces))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	integerPart, fractionPart, _ := strings.Cut(fixed, ".")
	formatted := sign + groupThousands(integerPart, thousandSeparator)
	if decimalPlaces > 0 && fractionPart != "" {
		return formatted + decimalSeparator + fractionPart
	}
	return formatted
}

// Format форматирует сумму по правилам отображения валюты.
func Format(amount float64, d Descriptor) string {
	number := FormatNumber(amount, d.DecimalPlaces, d.ThousandSeparator, d.DecimalSeparator)
	if d.Position == PositionAfter {
		return number + " " + d.Symbol
	}
	return d.Symbol + number
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
