// Package model содержит доменные сущности витрины магазина.
package model

import (
	"strings"

	"github.com/mmeshcher/storefront/internal/currency"
	"github.com/mmeshcher/storefront/internal/pricing"
)

// MoodGaming отмечает игровые товары.
const MoodGaming = "Gaming"

// ProductText содержит переведённые поля товара.
type ProductText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Product описывает товар каталога.
type Product struct {
	ID                 int64                  `json:"product_id"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	DiscountPrice      float64                `json:"discount_price"`
	CurrentPrice       float64                `json:"current_price"`
	DiscountPercentage float64                `json:"discount_percentage"`
	FeatureImage       string                 `json:"product_feature_img"`
	BannerImage        string                 `json:"banner_image,omitempty"`
	Images             []string               `json:"product_images"`
	Stock              int                    `json:"product_stock"`
	Reviews            int                    `json:"reviews"`
	Ratings            float64                `json:"ratings"`
	Colors             []string               `json:"product_colors"`
	Category           string                 `json:"category"`
	Series             string                 `json:"series"`
	Mood               string                 `json:"mood"`
	Keywords           []string               `json:"keywords"`
	MadeCountry        string                 `json:"made_country"`
	CreationDate       string                 `json:"creation_date"`
	Featured           bool                   `json:"featured"`
	Shipping           bool                   `json:"shipping"`
	Specs              map[string]string      `json:"specs"`
	Translations       map[string]ProductText `json:"translations,omitempty"`
}

// Localize возвращает копию товара с названием и описанием на указанном языке.
// Отсутствующие переводы заменяются исходными значениями.
func (p Product) Localize(lang string) Product {
	if text, ok := p.Translations[lang]; ok {
		if text.Title != "" {
			p.Title = text.Title
		}
		if text.Description != "" {
			p.Description = text.Description
		}
	}
	p.Translations = nil
	return p
}

// ProductFilter задаёт условия отбора товаров каталога.
type ProductFilter struct {
	Featured bool
	Gaming   bool
	Search   string
	Limit    int
}

// Apply отбирает товары по фильтру с сохранением порядка.
func (f ProductFilter) Apply(products []Product) []Product {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	res := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Featured && !p.Featured {
			continue
		}
		if f.Gaming && p.Mood != MoodGaming {
			continue
		}
		if term != "" && !strings.Contains(p.searchableText(), term) {
			continue
		}
		res = append(res, p)
	}

	if f.Limit > 0 && len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res
}

func (p Product) searchableText() string {
	parts := make([]string, 0, 3+len(p.Keywords))
	parts = append(parts, p.Title, p.Description, p.Category)
	parts = append(parts, p.Keywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

// PricedProduct описывает товар витрины с рассчитанной ценой в выбранной валюте.
type PricedProduct struct {
	Product
	Price     pricing.Calculation `json:"price"`
	Breakdown currency.Breakdown  `json:"breakdown"`
	OnSale    bool                `json:"on_sale"`
	SaleBadge string              `json:"sale_badge,omitempty"`
}

// Preferences содержит выбранные пользователем язык и валюту.
type Preferences struct {
	Language string `json:"language"`
	Currency string `json:"currency"`
}
