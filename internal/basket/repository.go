package basket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"novalnet-checkout/internal/logger"

	"go.uber.org/zap"
)

// Provider loads basket snapshots for checkout.
type Provider interface {
	Load(ctx context.Context, basketID string) (*Snapshot, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Provider {
	return &repository{db: db}
}

func (r *repository) Load(ctx context.Context, basketID string) (*Snapshot, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Load"),
		zap.String("basket_id", basketID),
	)

	var snap Snapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT id, currency, total_amount
		FROM baskets
		WHERE id = $1
	`, basketID).Scan(&snap.ID, &snap.Currency, &snap.Total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("basket not found")
			return nil, ErrBasketNotFound
		}
		log.Error("failed to query basket", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetBasket, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_ref, quantity, unit_price
		FROM basket_items
		WHERE basket_id = $1
		ORDER BY position ASC
	`, basketID)
	if err != nil {
		log.Error("failed to query basket items", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetBasketRows, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ProductRef, &item.Quantity, &item.UnitPrice); err != nil {
			log.Error("failed to scan basket item", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedGetBasketRows, err)
		}
		snap.Items = append(snap.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedGetBasketRows, err)
	}

	log.Debug("basket loaded",
		zap.Int("item_count", len(snap.Items)),
		zap.Int64("total", snap.Total),
		zap.String("currency", snap.Currency),
	)

	return &snap, nil
}
