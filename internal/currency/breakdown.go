package currency

import "github.com/mmeshcher/storefront/internal/pricing"

// Amount содержит сумму в базовой валюте, её пересчёт и строковое представление.
type Amount struct {
	Amount    float64 `json:"amount"`
	Converted float64 `json:"converted"`
	Formatted string  `json:"formatted"`
}

// Breakdown описывает разбивку цены товара в выбранной валюте.
type Breakdown struct {
	Original   Amount  `json:"original"`
	Discounted Amount  `json:"discounted"`
	Savings    Amount  `json:"savings"`
	Percentage float64 `json:"percentage"`
	Currency   string  `json:"currency"`
}

// PriceBreakdown рассчитывает скидку в базовой валюте и переводит все суммы в целевую валюту.
func (t *Table) PriceBreakdown(originalPrice, discountPercentage float64, target string) (Breakdown, error) {
	calc, err := pricing.ComputeDiscount(originalPrice, discountPercentage)
	if err != nil {
		return Breakdown{}, err
	}
	return t.Breakdown(calc, target), nil
}

// Breakdown строит разбивку цены по готовому расчёту скидки.
func (t *Table) Breakdown(calc pricing.Calculation, target string) Breakdown {
	d, _ := t.Descriptor(target)

	amount := func(v float64) Amount {
		converted := t.Convert(v, t.rates.Base, target)
		return Amount{
			Amount:    v,
			Converted: converted,
			Formatted: Format(converted, d),
		}
	}

	return Breakdown{
		Original:   amount(calc.OriginalPrice),
		Discounted: amount(calc.DiscountedPrice),
		Savings:    amount(calc.Savings),
		Percentage: calc.DiscountPercentage,
		Currency:   target,
	}
}
