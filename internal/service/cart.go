package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/minishop/internal/events"
	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) View(ctx context.Context, userID uint) ([]models.CartLine, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) Add(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	item, err := s.Repo.AddToCart(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, repo.ErrCartUserMissing) || errors.Is(err, repo.ErrCartProductMissing) {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, userID, map[string]any{
		"type":       "cart_item_added",
		"userID":     userID,
		"productID":  productID,
		"cartItemID": item.ID,
	})
	return item, nil
}

// Remove drops a single unit of productID from the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	item, err := s.Repo.RemoveOneFromCart(ctx, userID, productID)
	if err != nil {
		return nil, notFound(err, "cart product", productID)
	}

	publish(ctx, s.Events, events.TopicCart, userID, map[string]any{
		"type":       "cart_item_removed",
		"userID":     userID,
		"productID":  productID,
		"cartItemID": item.ID,
	})
	return item, nil
}

// Checkout empties the user's cart and reports how many units were removed.
func (s *CartService) Checkout(ctx context.Context, userID uint) (int64, error) {
	removed, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, err
	}

	publish(ctx, s.Events, events.TopicCart, userID, map[string]any{
		"type":    "cart_checked_out",
		"userID":  userID,
		"removed": removed,
	})
	return removed, nil
}
