package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/minishop/internal/events"
	"github.com/Skotchmaster/minishop/internal/logging"
	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/internal/search"
	"github.com/Skotchmaster/minishop/internal/transport"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  search.Index
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return prod, nil
}

// List returns products ordered by id. limit <= 0 returns all of them.
func (s *CatalogService) List(ctx context.Context, offset, limit int) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if req.Price == nil {
		return nil, fmt.Errorf("price is required: %w", ErrValidation)
	}
	if *req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative: %w", ErrValidation)
	}

	prod := models.Product{Name: *req.Name, Price: *req.Price}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}

	s.reindex(ctx, &prod)
	publish(ctx, s.Events, events.TopicProduct, prod.ID, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
	})
	return &prod, nil
}

// Patch overwrites only the fields present in req.
func (s *CatalogService) Patch(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name must not be blank: %w", ErrValidation)
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative: %w", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, id, req)
	if err != nil {
		return nil, notFound(err, "product", id)
	}

	s.reindex(ctx, prod)
	publish(ctx, s.Events, events.TopicProduct, prod.ID, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
	})
	return prod, nil
}

// Delete removes the product and returns how many cart items went with it.
func (s *CatalogService) Delete(ctx context.Context, id uint) (int64, error) {
	removed, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		return 0, notFound(err, "product", id)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_failed", "productID", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProduct, id, map[string]any{
		"type":             "product_deleted",
		"productID":        id,
		"removedCartItems": removed,
	})
	return removed, nil
}

func (s *CatalogService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil, fmt.Errorf("query is required: %w", ErrValidation)
	}
	return s.Index.Search(ctx, query, offset, limit)
}

// Reindex pushes every stored product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	items, err := s.Repo.ListProducts(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("index product %d: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}

func (s *CatalogService) reindex(ctx context.Context, prod *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "productID", prod.ID, "error", err)
	}
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
