// Package currency содержит справочник валют, конвертацию по курсам и форматирование цен.
package currency

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"
)

//go:embed data/pricing.json
var defaultPricing []byte

// ErrInvalidTable возвращается при некорректной конфигурации валют или курсов.
var ErrInvalidTable = errors.New("invalid currency table")

// Position определяет положение символа валюты относительно числа.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

const maxDecimalPlaces = 8

// Descriptor содержит правила отображения валюты.
type Descriptor struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Position          Position `json:"position"`
	DecimalPlaces     int      `json:"decimalPlaces"`
	ThousandSeparator string   `json:"thousandSeparator"`
	DecimalSeparator  string   `json:"decimalSeparator"`
	Locale            string   `json:"locale"`
}

// RateTable содержит курсы валют относительно базовой валюты.
type RateTable struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (rt RateTable) rate(code string) (float64, bool) {
	if code == rt.Base {
		return 1, true
	}
	r, ok := rt.Rates[code]
	if !ok || r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Convert переводит сумму из одной валюты в другую.
// При отсутствии нужного курса сумма возвращается без изменений.
func Convert(amount float64, from, to string, rates RateTable) float64 {
	if from == to || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}

	fromRate, ok := rates.rate(from)
	if !ok {
		return amount
	}
	toRate, ok := rates.rate(to)
	if !ok {
		return amount
	}

	value := decimal.NewFromFloat(amount)
	if from != rates.Base {
		value = value.Div(decimal.NewFromFloat(fromRate))
	}
	if to != rates.Base {
		value = value.Mul(decimal.NewFromFloat(toRate))
	}
	return value.InexactFloat64()
}

// Table хранит неизменяемый справочник валют вместе с таблицей курсов.
// Безопасен для одновременного чтения из нескольких горутин.
type Table struct {
	rates       RateTable
	descriptors map[string]Descriptor
	codes       []string
}

type pricingFile struct {
	Currencies    []Descriptor `json:"currencies"`
	ExchangeRates RateTable    `json:"exchangeRates"`
}

// New проверяет конфигурацию и создаёт справочник валют.
func New(descriptors []Descriptor, rates RateTable) (*Table, error) {
	t := &Table{
		descriptors: make(map[string]Descriptor, len(descriptors)),
		codes:       make([]string, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		if d.Code == "" {
			return nil, fmt.Errorf("%w: currency code is empty", ErrInvalidTable)
		}
		if _, dup := t.descriptors[d.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate currency %s", ErrInvalidTable, d.Code)
		}
		switch d.Position {
		case "":
			d.Position = PositionBefore
		case PositionBefore, PositionAfter:
		default:
			return nil, fmt.Errorf("%w: currency %s has unknown symbol position %q", ErrInvalidTable, d.Code, d.Position)
		}
		if d.DecimalPlaces < 0 || d.DecimalPlaces > maxDecimalPlaces {
			return nil, fmt.Errorf("%w: currency %s decimal places must be between 0 and %d", ErrInvalidTable, d.Code, maxDecimalPlaces)
		}
		t.descriptors[d.Code] = d
		t.codes = append(t.codes, d.Code)
	}

	validated, err := validateRates(rates)
	if err != nil {
		return nil, err
	}
	if _, ok := t.descriptors[validated.Base]; !ok {
		return nil, fmt.Errorf("%w: base currency %s is not described", ErrInvalidTable, validated.Base)
	}
	t.rates = validated

	return t, nil
}

func validateRates(rates RateTable) (RateTable, error) {
	if rates.Base == "" {
		return RateTable{}, fmt.Errorf("%w: base currency is empty", ErrInvalidTable)
	}

	res := RateTable{
		Base:  rates.Base,
		Rates: make(map[string]float64, len(rates.Rates)+1),
	}
	for code, r := range rates.Rates {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return RateTable{}, fmt.Errorf("%w: rate for %s must be a positive number", ErrInvalidTable, code)
		}
		if code == rates.Base && r != 1 {
			return RateTable{}, fmt.Errorf("%w: base currency rate must be 1, got %v", ErrInvalidTable, r)
		}
		res.Rates[code] = r
	}
	res.Rates[rates.Base] = 1

	return res, nil
}

// Parse разбирает JSON-конфигурацию валют и курсов.
func Parse(data []byte) (*Table, error) {
	var f pricingFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode pricing config: %w", err)
	}
	return New(f.Currencies, f.ExchangeRates)
}

// Load читает конфигурацию валют из файла.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing config: %w", err)
	}
	return Parse(data)
}

// Default возвращает справочник валют, встроенный в бинарный файл.
func Default() (*Table, error) {
	return Parse(defaultPricing)
}

// WithRates возвращает новый справочник с теми же валютами и другими курсами.
func (t *Table) WithRates(rates RateTable) (*Table, error) {
	validated, err := validateRates(rates)
	if err != nil {
		return nil, err
	}
	if validated.Base != t.rates.Base {
		return nil, fmt.Errorf("%w: base currency %s does not match %s", ErrInvalidTable, validated.Base, t.rates.Base)
	}

	return &Table{
		rates:       validated,
		descriptors: t.descriptors,
		codes:       t.codes,
	}, nil
}

// Base возвращает код базовой валюты.
func (t *Table) Base() string {
	return t.rates.Base
}

// Rates возвращает копию таблицы курсов.
func (t *Table) Rates() RateTable {
	rates := make(map[string]float64, len(t.rates.Rates))
	for code, r := range t.rates.Rates {
		rates[code] = r
	}
	return RateTable{Base: t.rates.Base, Rates: rates}
}

// Currencies возвращает описания валют в порядке конфигурации.
func (t *Table) Currencies() []Descriptor {
	res := make([]Descriptor, 0, len(t.codes))
	for _, code := range t.codes {
		res = append(res, t.descriptors[code])
	}
	return res
}

// Descriptor возвращает описание валюты по коду.
func (t *Table) Descriptor(code string) (Descriptor, bool) {
	d, ok := t.descriptors[code]
	return d, ok
}

// Supports сообщает, описана ли валюта в справочнике.
func (t *Table) Supports(code string) bool {
	_, ok := t.descriptors[code]
	return ok
}

// Convert переводит сумму между валютами по курсам справочника.
func (t *Table) Convert(amount float64, from, to string) float64 {
	return Convert(amount, from, to, t.rates)
}

// Format форматирует сумму по правилам указанной валюты без конвертации.
func (t *Table) Format(amount float64, code string) string {
	d, _ := t.Descriptor(code)
	return Format(amount, d)
}
