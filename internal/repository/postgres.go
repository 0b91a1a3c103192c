package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/storefront/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dateLayout = "2006-01-02"

const productColumns = `id, title, description, discount_price, current_price, discount_percentage,
	feature_image, banner_image, images, stock, reviews, ratings, colors,
	category, series, mood, keywords, made_country, creation_date, featured, shipping, specs`

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository хранит каталог товаров в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(retryDelays) {
			return err
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListProducts возвращает все товары каталога, упорядоченные по идентификатору.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
		if err != nil {
			return fmt.Errorf("select products: %w", err)
		}
		defer rows.Close()

		products = products[:0]
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	translations, err := r.translations(ctx, `SELECT product_id, lang, title, description FROM product_translations`)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Translations = translations[products[i].ID]
	}

	return products, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := withRetry(ctx, func() error {
		row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

		var err error
		p, err = scanProduct(row)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	translations, err := r.translations(ctx,
		`SELECT product_id, lang, title, description FROM product_translations WHERE product_id = $1`, id)
	if err != nil {
		return nil, err
	}
	p.Translations = translations[id]

	return &p, nil
}

// SeedProducts добавляет в каталог отсутствующие товары и возвращает количество вставленных записей.
func (r *PostgresRepository) SeedProducts(ctx context.Context, products []model.Product) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, p := range products {
		cmdTag, err := tx.Exec(ctx,
			`INSERT INTO products (`+productColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			 ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Title, p.Description, p.DiscountPrice, p.CurrentPrice, p.DiscountPercentage,
			p.FeatureImage, p.BannerImage, nonNil(p.Images), p.Stock, p.Reviews, p.Ratings, nonNil(p.Colors),
			p.Category, p.Series, p.Mood, nonNil(p.Keywords), p.MadeCountry, parseDate(p.CreationDate),
			p.Featured, p.Shipping, nonNilSpecs(p.Specs),
		)
		if err != nil {
			return 0, fmt.Errorf("insert product %d: %w", p.ID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			continue
		}
		inserted++

		for lang, text := range p.Translations {
			_, err := tx.Exec(ctx,
				`INSERT INTO product_translations (product_id, lang, title, description) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (product_id, lang) DO NOTHING`,
				p.ID, lang, text.Title, text.Description,
			)
			if err != nil {
				return 0, fmt.Errorf("insert translation %d/%s: %w", p.ID, lang, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return inserted, nil
}

func (r *PostgresRepository) translations(ctx context.Context, query string, args ...any) (map[int64]map[string]model.ProductText, error) {
	res := make(map[int64]map[string]model.ProductText)
	err := withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select translations: %w", err)
		}
		defer rows.Close()

		clear(res)
		for rows.Next() {
			var (
				productID int64
				lang      string
				text      model.ProductText
			)
			if err := rows.Scan(&productID, &lang, &text.Title, &text.Description); err != nil {
				return fmt.Errorf("scan translation: %w", err)
			}
			if res[productID] == nil {
				res[productID] = make(map[string]model.ProductText)
			}
			res[productID][lang] = text
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p            model.Product
		creationDate *time.Time
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.DiscountPrice, &p.CurrentPrice, &p.DiscountPercentage,
		&p.FeatureImage, &p.BannerImage, &p.Images, &p.Stock, &p.Reviews, &p.Ratings, &p.Colors,
		&p.Category, &p.Series, &p.Mood, &p.Keywords, &p.MadeCountry, &creationDate,
		&p.Featured, &p.Shipping, &p.Specs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, err
		}
		return model.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if creationDate != nil {
		p.CreationDate = creationDate.Format(dateLayout)
	}
	return p, nil
}

func parseDate(s string) *time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilSpecs(v map[string]string) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return v
}
