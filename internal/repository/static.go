// Package repository содержит источники каталога товаров: встроенный JSON и PostgreSQL.
package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mmeshcher/storefront/internal/model"
)

//go:embed data/products.json
var defaultCatalog []byte

// ErrProductNotFound возвращается, если товар с указанным идентификатором отсутствует.
var ErrProductNotFound = errors.New("product not found")

// StaticRepository отдаёт каталог, загруженный один раз при старте.
type StaticRepository struct {
	products []model.Product
	byID     map[int64]int
}

// NewStaticRepository загружает каталог из файла; при пустом пути используется встроенный каталог.
func NewStaticRepository(path string) (*StaticRepository, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	r := &StaticRepository{
		products: products,
		byID:     make(map[int64]int, len(products)),
	}
	for i, p := range products {
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("decode catalog: duplicate product id %d", p.ID)
		}
		r.byID[p.ID] = i
	}

	return r, nil
}

// Close ничего не освобождает и нужен для совместимости с другими источниками.
func (r *StaticRepository) Close() error {
	return nil
}

// ListProducts возвращает все товары каталога в исходном порядке.
func (r *StaticRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	res := make([]model.Product, len(r.products))
	copy(res, r.products)
	return res, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *StaticRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := r.products[i]
	return &p, nil
}
