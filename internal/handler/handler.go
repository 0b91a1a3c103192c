// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/currency"
	"github.com/mmeshcher/storefront/internal/locale"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/pricing"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ListProducts(ctx context.Context, filter model.ProductFilter, lang, cur string) ([]model.PricedProduct, error)
	GetProduct(ctx context.Context, id int64, lang, cur string) (*model.PricedProduct, error)
	PriceBreakdown(originalPrice, discountPercentage float64, cur string) (currency.Breakdown, error)
	CalculateBatch(items []pricing.Item) ([]pricing.Calculation, error)
	DiscountPercentage(originalPrice, discountedPrice float64) (float64, error)
	Currencies() (string, []currency.Descriptor, currency.RateTable)
	LanguageData(lang string) (json.RawMessage, error)
	Direction(lang string) locale.Direction
	ResolvePreferences(lang, cur string) model.Preferences
	ValidatePreferences(p model.Preferences) (model.Preferences, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service     Service
	logger      *zap.Logger
	preferences *middleware.PreferencesMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, prefs *middleware.PreferencesMiddleware) *Handler {
	return &Handler{
		service:     s,
		logger:      logger,
		preferences: prefs,
	}
}

type productsResponse struct {
	Products  []model.PricedProduct `json:"products"`
	Total     int                   `json:"total"`
	Language  string                `json:"language"`
	Direction locale.Direction      `json:"direction"`
	Currency  string                `json:"currency"`
}

type currenciesResponse struct {
	Base       string                `json:"base"`
	Currencies []currency.Descriptor `json:"currencies"`
	Rates      map[string]float64    `json:"rates"`
}

type percentageResponse struct {
	Percentage float64 `json:"percentage"`
}

// ListProducts возвращает товары каталога с ценами в выбранной валюте.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ProductFilter{
		Featured: parseBool(q.Get("featured")),
		Gaming:   parseBool(q.Get("gaming")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	lang, cur := h.requestPreferences(r)

	products, err := h.service.ListProducts(r.Context(), filter, lang, cur)
	if err != nil {
		h.writeError(w, "list products error", err)
		return
	}

	prefs := h.service.ResolvePreferences(lang, cur)
	writeJSON(w, http.StatusOK, productsResponse{
		Products:  products,
		Total:     len(products),
		Language:  prefs.Language,
		Direction: h.service.Direction(prefs.Language),
		Currency:  prefs.Currency,
	})
}

// GetProduct возвращает один товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lang, cur := h.requestPreferences(r)

	product, err := h.service.GetProduct(r.Context(), id, lang, cur)
	if err != nil {
		h.writeError(w, "get product error", err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// LanguageData возвращает словарь витрины для языка.
func (h *Handler) LanguageData(w http.ResponseWriter, r *http.Request) {
	lang, _ := h.requestPreferences(r)

	data, err := h.service.LanguageData(lang)
	if err != nil {
		h.writeError(w, "language data error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Language", h.service.ResolvePreferences(lang, "").Language)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Currencies возвращает справочник валют и текущие курсы.
func (h *Handler) Currencies(w http.ResponseWriter, r *http.Request) {
	base, descriptors, rates := h.service.Currencies()
	writeJSON(w, http.StatusOK, currenciesResponse{
		Base:       base,
		Currencies: descriptors,
		Rates:      rates.Rates,
	})
}

// PriceBreakdown возвращает разбивку цены в выбранной валюте.
func (h *Handler) PriceBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	price, err := parseFloat(q.Get("price"))
	if err != nil {
		http.Error(w, "price must be a number", http.StatusBadRequest)
		return
	}
	discount := 0.0
	if v := q.Get("discount"); v != "" {
		discount, err = parseFloat(v)
		if err != nil {
			http.Error(w, "discount must be a number", http.StatusBadRequest)
			return
		}
	}

	_, cur := h.requestPreferences(r)

	breakdown, err := h.service.PriceBreakdown(price, discount, cur)
	if err != nil {
		h.writeError(w, "price breakdown error", err)
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

// CalculateDiscounts рассчитывает скидки для набора позиций из тела запроса.
func (h *Handler) CalculateDiscounts(w http.ResponseWriter, r *http.Request) {
	var items []pricing.Item
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.CalculateBatch(items)
	if err != nil {
		h.writeError(w, "calculate discounts error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// DiscountPercentage восстанавливает процент скидки по двум ценам.
func (h *Handler) DiscountPercentage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	original, err := parseFloat(q.Get("original"))
	if err != nil {
		http.Error(w, "original must be a number", http.StatusBadRequest)
		return
	}
	discounted, err := parseFloat(q.Get("discounted"))
	if err != nil {
		http.Error(w, "discounted must be a number", http.StatusBadRequest)
		return
	}

	pct, err := h.service.DiscountPercentage(original, discounted)
	if err != nil {
		h.writeError(w, "discount percentage error", err)
		return
	}

	writeJSON(w, http.StatusOK, percentageResponse{Percentage: pct})
}

// SavePreferences сохраняет язык и валюту пользователя в cookie.
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var req model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	prefs, err := h.service.ValidatePreferences(req)
	if err != nil {
		h.writeError(w, "save preferences error", err)
		return
	}

	h.preferences.SetPreferencesCookie(w, prefs)
	writeJSON(w, http.StatusOK, prefs)
}

// requestPreferences определяет язык и валюту запроса.
// Параметры запроса важнее cookie, заголовок Accept-Language используется последним.
func (h *Handler) requestPreferences(r *http.Request) (string, string) {
	q := r.URL.Query()
	lang := q.Get("lang")
	cur := q.Get("currency")

	if saved, ok := middleware.PreferencesFromContext(r.Context()); ok {
		if lang == "" {
			lang = saved.Language
		}
		if cur == "" {
			cur = saved.Currency
		}
	}

	if lang == "" {
		if accept := r.Header.Get("Accept-Language"); accept != "" {
			lang = locale.Match(accept)
		}
	}

	return lang, cur
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidArgument),
		errors.Is(err, locale.ErrUnsupportedLanguage),
		errors.Is(err, service.ErrUnsupportedCurrency):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrProductNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}
