package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticRepository_Default(t *testing.T) {
	repo, err := NewStaticRepository("")
	require.NoError(t, err)
	defer repo.Close()

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "AST-G1", products[0].Title)
	assert.Equal(t, 3500.0, products[0].CurrentPrice)
	assert.Equal(t, 31.0, products[0].DiscountPercentage)
	assert.Contains(t, products[0].Translations, "ar")

	p, err := repo.GetProduct(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Gaming", p.Mood)
	assert.Equal(t, "V5.4", p.Specs["wireless_version"])
}

func TestStaticRepository_NotFound(t *testing.T) {
	repo, err := NewStaticRepository("")
	require.NoError(t, err)

	_, err = repo.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestStaticRepository_ListIsCopy(t *testing.T) {
	repo, err := NewStaticRepository("")
	require.NoError(t, err)

	products, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	products[0].Title = "changed"

	again, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AST-G1", again[0].Title)
}

func TestStaticRepository_FromFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"product_id": 5, "title": "X", "current_price": 100}]`), 0o600))

	repo, err := NewStaticRepository(path)
	require.NoError(t, err)

	p, err := repo.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "X", p.Title)

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`[{"product_id": 1}, {"product_id": 1}]`), 0o600))
	_, err = NewStaticRepository(dup)
	assert.Error(t, err)

	_, err = NewStaticRepository(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "other", err: errors.New("syntax error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Fatalf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("syntax error")

	err := withRetry(context.Background(), func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestParseDate(t *testing.T) {
	d := parseDate("2024-05-01")
	require.NotNil(t, d)
	assert.Equal(t, "2024-05-01", d.Format(dateLayout))

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("01.05.2024"))
}
