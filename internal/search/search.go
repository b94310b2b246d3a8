package search

import (
	"context"
	"strings"

	"github.com/Skotchmaster/minishop/internal/models"
)

type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type productSearcher interface {
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

// SQLIndex queries the store directly. Writes are no-ops because the
// store is the source of truth.
type SQLIndex struct {
	Repo productSearcher
}

func (SQLIndex) IndexProduct(context.Context, *models.Product) error { return nil }
func (SQLIndex) DeleteProduct(context.Context, uint) error           { return nil }

func (s SQLIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return 0, []models.Product{}, nil
	}
	return s.Repo.SearchProducts(ctx, q, from, size)
}
