// Package service реализует сценарии витрины: каталог, цены, валюты и локализацию.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/currency"
	"github.com/mmeshcher/storefront/internal/locale"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/pricing"
	"github.com/mmeshcher/storefront/internal/rates"
)

// ErrUnsupportedCurrency возвращается для валюты, отсутствующей в таблице.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Repository описывает контракт доступа к каталогу, используемый сервисом.
type Repository interface {
	Close() error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// RatesClient описывает источник актуальных курсов валют.
type RatesClient interface {
	GetRates(ctx context.Context, base string) (*currency.RateTable, int, time.Duration, error)
}

// Options задаёт значения по умолчанию для языка и валюты.
type Options struct {
	DefaultLanguage string
	DefaultCurrency string
	Logger          *zap.Logger
}

// Service содержит бизнес-логику витрины.
type Service struct {
	repo        Repository
	bundle      *locale.Bundle
	table       atomic.Pointer[currency.Table]
	ratesClient RatesClient
	logger      *zap.Logger

	defaultLanguage string
	defaultCurrency string
}

// NewService создаёт сервис поверх каталога, словарей и таблицы валют.
// Клиент курсов может быть nil, тогда таблица остаётся неизменной.
func NewService(repo Repository, bundle *locale.Bundle, table *currency.Table, ratesClient *rates.Client, opts Options) *Service {
	s := &Service{
		repo:            repo,
		bundle:          bundle,
		logger:          opts.Logger,
		defaultLanguage: opts.DefaultLanguage,
		defaultCurrency: opts.DefaultCurrency,
	}
	// Интерфейс с nil-указателем внутри не равен nil, поэтому клиент присваивается только если задан.
	if ratesClient != nil {
		s.ratesClient = ratesClient
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if !locale.IsSupported(s.defaultLanguage) {
		s.defaultLanguage = locale.DefaultLanguage
	}
	if !table.Supports(s.defaultCurrency) {
		s.defaultCurrency = table.Base()
	}
	s.table.Store(table)
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Table возвращает текущий снимок таблицы валют.
func (s *Service) Table() *currency.Table {
	return s.table.Load()
}

// ListProducts возвращает отфильтрованные товары, локализованные и пересчитанные в валюту.
func (s *Service) ListProducts(ctx context.Context, filter model.ProductFilter, lang, cur string) ([]model.PricedProduct, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	cur = s.currency(cur)

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	localized := make([]model.Product, len(products))
	for i, p := range products {
		localized[i] = p.Localize(lang)
	}

	table := s.table.Load()
	badge := s.bundle.Translate(lang, "products.off", "OFF")

	filtered := filter.Apply(localized)
	res := make([]model.PricedProduct, 0, len(filtered))
	for _, p := range filtered {
		res = append(res, price(table, p, cur, badge))
	}
	return res, nil
}

// GetProduct возвращает один товар, локализованный и пересчитанный в валюту.
func (s *Service) GetProduct(ctx context.Context, id int64, lang, cur string) (*model.PricedProduct, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	cur = s.currency(cur)

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	badge := s.bundle.Translate(lang, "products.off", "OFF")
	priced := price(s.table.Load(), p.Localize(lang), cur, badge)
	return &priced, nil
}

func price(table *currency.Table, p model.Product, cur, badge string) model.PricedProduct {
	calc, err := pricing.ComputeDiscount(p.CurrentPrice, p.DiscountPercentage)
	if err != nil {
		// В каталоге встречаются некорректные проценты; такой товар показывается без скидки.
		calc, _ = pricing.ComputeDiscount(p.CurrentPrice, 0)
	}

	priced := model.PricedProduct{
		Product:   p,
		Price:     calc,
		Breakdown: table.Breakdown(calc, cur),
		OnSale:    pricing.IsOnSale(calc.DiscountPercentage),
	}
	if priced.OnSale {
		priced.SaleBadge = pricing.SaleBadge(calc.DiscountPercentage, badge)
	}
	return priced
}

// PriceBreakdown рассчитывает скидку и переводит суммы в указанную валюту.
func (s *Service) PriceBreakdown(originalPrice, discountPercentage float64, cur string) (currency.Breakdown, error) {
	return s.table.Load().PriceBreakdown(originalPrice, discountPercentage, s.currency(cur))
}

// CalculateBatch рассчитывает скидки для набора позиций.
func (s *Service) CalculateBatch(items []pricing.Item) ([]pricing.Calculation, error) {
	return pricing.ComputeBatch(items)
}

// DiscountPercentage восстанавливает процент скидки по исходной и итоговой цене.
func (s *Service) DiscountPercentage(originalPrice, discountedPrice float64) (float64, error) {
	return pricing.ComputeDiscountPercentage(originalPrice, discountedPrice)
}

// Currencies возвращает текущий снимок таблицы валют.
func (s *Service) Currencies() (string, []currency.Descriptor, currency.RateTable) {
	t := s.table.Load()
	return t.Base(), t.Currencies(), t.Rates()
}

// LanguageData возвращает словарь витрины для языка.
func (s *Service) LanguageData(lang string) (json.RawMessage, error) {
	lang, err := s.language(lang)
	if err != nil {
		return nil, err
	}
	return s.bundle.Data(lang)
}

// Direction возвращает направление письма для языка.
func (s *Service) Direction(lang string) locale.Direction {
	if lang == "" {
		lang = s.defaultLanguage
	}
	return locale.DirectionOf(lang)
}

// ResolvePreferences подставляет значения по умолчанию вместо неподдерживаемых языка и валюты.
func (s *Service) ResolvePreferences(lang, cur string) model.Preferences {
	l, err := s.language(lang)
	if err != nil {
		l = s.defaultLanguage
	}
	return model.Preferences{
		Language: l,
		Currency: s.currency(cur),
	}
}

// ValidatePreferences проверяет, что язык и валюта поддерживаются витриной.
func (s *Service) ValidatePreferences(p model.Preferences) (model.Preferences, error) {
	lang := strings.ToLower(strings.TrimSpace(p.Language))
	if !locale.IsSupported(lang) {
		return model.Preferences{}, fmt.Errorf("%w: %s", locale.ErrUnsupportedLanguage, p.Language)
	}
	cur := strings.ToUpper(strings.TrimSpace(p.Currency))
	if !s.table.Load().Supports(cur) {
		return model.Preferences{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, p.Currency)
	}
	return model.Preferences{Language: lang, Currency: cur}, nil
}

func (s *Service) language(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return s.defaultLanguage, nil
	}
	if !locale.IsSupported(lang) {
		_, err := s.bundle.Data(lang)
		return "", err
	}
	return lang, nil
}

func (s *Service) currency(cur string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if cur == "" || !s.table.Load().Supports(cur) {
		return s.defaultCurrency
	}
	return cur
}

// StartRateUpdates запускает фоновое обновление курсов валют с заданным интервалом.
func (s *Service) StartRateUpdates(ctx context.Context, interval time.Duration) {
	if s.ratesClient == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshRates(ctx)
			}
		}
	}()
}

func (s *Service) refreshRates(ctx context.Context) {
	current := s.table.Load()

	table, statusCode, retryAfter, err := s.ratesClient.GetRates(ctx, current.Base())
	if err != nil {
		s.logger.Warn("fetch rates failed", zap.Error(err))
		return
	}

	if statusCode == http.StatusTooManyRequests {
		s.logger.Info("rates source throttled", zap.Duration("retry_after", retryAfter))
		if retryAfter > 0 {
			timer := time.NewTimer(retryAfter)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		return
	}

	if table == nil {
		return
	}

	next, err := current.WithRates(*table)
	if err != nil {
		s.logger.Warn("rejected rate table", zap.Error(err))
		return
	}

	s.table.Store(next)
	s.logger.Info("exchange rates updated", zap.String("base", next.Base()), zap.Int("currencies", len(next.Rates().Rates)))
}
