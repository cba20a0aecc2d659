package product

import (
	"context"
	"fmt"

	"protexwear-api/internal/apperror"
	"protexwear-api/internal/logger"
	"protexwear-api/internal/metrics"

	"go.uber.org/zap"
)

type Service interface {
	// LoadForCheckout loads every product in lines and checks that each has
	// enough stock. The check is advisory; nothing is reserved.
	LoadForCheckout(ctx context.Context, lines []StockLine) (map[string]*Product, error)
	// DecrementStock applies each line independently and returns how many
	// succeeded. Failures are logged and never undo earlier lines.
	DecrementStock(ctx context.Context, lines []StockLine) int
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LoadForCheckout(ctx context.Context, lines []StockLine) (map[string]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "LoadForCheckout"),
	)

	ids := make([]string, 0, len(lines))
	requested := make(map[string]int, len(lines))
	for _, l := range lines {
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
	}

	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load products", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			log.Warn("product not found", zap.String("product_id", id))
			return nil, apperror.Validation(fmt.Sprintf("Product not found: %s", id))
		}
		if p.Stock < requested[id] {
			log.Warn("insufficient stock",
				zap.String("product_id", id),
				zap.Int("stock", p.Stock),
				zap.Int("requested", requested[id]),
			)
			return nil, apperror.Validation(fmt.Sprintf("Insufficient stock for %s", p.Name))
		}
	}

	return products, nil
}

func (s *service) DecrementStock(ctx context.Context, lines []StockLine) int {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DecrementStock"),
	)

	timer := metrics.StartTimer()
	applied := 0
	for _, l := range lines {
		if err := s.repo.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			log.Error("stock decrement failed",
				zap.String("product_id", l.ProductID),
				zap.Int("quantity", l.Quantity),
				zap.Error(err),
			)
			continue
		}
		applied++
	}

	log.Info("stock decremented",
		zap.Int("lines", len(lines)),
		zap.Int("applied", applied),
		zap.Duration("duration", timer.Duration()),
	)

	return applied
}
