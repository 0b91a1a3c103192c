// Package pricing содержит расчёт скидок для витрины магазина.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument возвращается при некорректных входных данных расчёта.
var ErrInvalidArgument = errors.New("invalid argument")

var hundred = decimal.NewFromInt(100)

// Calculation описывает результат расчёта цены со скидкой.
type Calculation struct {
	OriginalPrice      float64 `json:"originalPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountedPrice    float64 `json:"discountedPrice"`
	Savings            float64 `json:"savings"`
}

// Item описывает входные данные для пакетного расчёта.
type Item struct {
	OriginalPrice      float64 `json:"originalPrice"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// ComputeDiscount рассчитывает цену со скидкой и сумму экономии.
// Обе величины округляются до целого независимо, половина округляется от нуля.
func ComputeDiscount(originalPrice, discountPercentage float64) (Calculation, error) {
	if !isFinite(originalPrice) || !isFinite(discountPercentage) {
		return Calculation{}, fmt.Errorf("%w: price and discount must be finite numbers", ErrInvalidArgument)
	}
	if originalPrice < 0 {
		return Calculation{}, fmt.Errorf("%w: original price cannot be negative", ErrInvalidArgument)
	}
	if discountPercentage < 0 || discountPercentage > 100 {
		return Calculation{}, fmt.Errorf("%w: discount percentage must be between 0 and 100", ErrInvalidArgument)
	}

	price := decimal.NewFromFloat(originalPrice)
	discount := price.Mul(decimal.NewFromFloat(discountPercentage)).Div(hundred)

	return Calculation{
		OriginalPrice:      originalPrice,
		DiscountPercentage: discountPercentage,
		DiscountedPrice:    price.Sub(discount).Round(0).InexactFloat64(),
		Savings:            discount.Round(0).InexactFloat64(),
	}, nil
}

// ComputeDiscountPercentage восстанавливает процент скидки по исходной и итоговой цене.
func ComputeDiscountPercentage(originalPrice, discountedPrice float64) (float64, error) {
	if !isFinite(originalPrice) || !isFinite(discountedPrice) {
		return 0, fmt.Errorf("%w: prices must be finite numbers", ErrInvalidArgument)
	}
	if originalPrice <= 0 {
		return 0, fmt.Errorf("%w: original price must be greater than 0", ErrInvalidArgument)
	}
	if discountedPrice < 0 {
		return 0, fmt.Errorf("%w: discounted price cannot be negative", ErrInvalidArgument)
	}
	if discountedPrice > originalPrice {
		return 0, fmt.Errorf("%w: discounted price cannot be greater than original price", ErrInvalidArgument)
	}

	original := decimal.NewFromFloat(originalPrice)
	saved := original.Sub(decimal.NewFromFloat(discountedPrice))

	return saved.Div(original).Mul(hundred).Round(0).InexactFloat64(), nil
}

// ComputeBatch рассчитывает цены для набора позиций с сохранением порядка.
// Первая ошибка прерывает расчёт.
func ComputeBatch(items []Item) ([]Calculation, error) {
	res := make([]Calculation, 0, len(items))
	for i, item := range items {
		calc, err := ComputeDiscount(item.OriginalPrice, item.DiscountPercentage)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		res = append(res, calc)
	}
	return res, nil
}

// IsOnSale сообщает, действует ли на товар скидка.
func IsOnSale(discountPercentage float64) bool {
	return discountPercentage > 0
}

// SaleBadge возвращает текст плашки распродажи, например "31% OFF".
// Пустая подпись заменяется на "OFF".
func SaleBadge(discountPercentage float64, label string) string {
	if label == "" {
		label = "OFF"
	}
	return strconv.FormatFloat(discountPercentage, 'f', -1, 64) + "% " + label
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
