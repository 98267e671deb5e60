package crm

import (
	"context"
	"errors"
	"fmt"
)

// ReplenishStrategy selects how a low-stock product is topped up.
type ReplenishStrategy string

const (
	// StrategyIncrement adds Amount to the current stock (9 -> 59).
	StrategyIncrement ReplenishStrategy = "increment"
	// StrategySetToThreshold raises stock to exactly Threshold (9 -> 10).
	StrategySetToThreshold ReplenishStrategy = "set_to_threshold"
)

const (
	DefaultThreshold     = 10
	DefaultRestockAmount = 50
)

type ReplenishInput struct {
	Threshold *int              `json:"threshold,omitempty"`
	Amount    *int              `json:"amount,omitempty"`
	Strategy  ReplenishStrategy `json:"strategy,omitempty"`
}

type StockUpdate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type ReplenishResult struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	Errors          FieldErrors       `json:"errors"`
	Strategy        ReplenishStrategy `json:"strategy"`
	UpdatedCount    int               `json:"updated_count"`
	UpdatedProducts []StockUpdate     `json:"updated_products"`
}

func (in ReplenishInput) resolve() (threshold, amount int, strategy ReplenishStrategy) {
	threshold, amount, strategy = DefaultThreshold, DefaultRestockAmount, StrategyIncrement
	if in.Threshold != nil {
		threshold = *in.Threshold
	}
	if in.Amount != nil {
		amount = *in.Amount
	}
	if in.Strategy != "" {
		strategy = in.Strategy
	}
	return threshold, amount, strategy
}

// ReplenishLowStock tops up every product whose stock is strictly below the
// threshold. Rows are updated one at a time with no lock across products, so
// repeated runs keep incrementing whatever is still below the threshold.
func (s *Service) ReplenishLowStock(ctx context.Context, in ReplenishInput) (*ReplenishResult, error) {
	threshold, amount, strategy := in.resolve()

	var errs FieldErrors
	switch {
	case threshold < 0:
		errs.Add("threshold", "threshold cannot be negative")
	case threshold > MaxStock:
		errs.Addf("threshold", "threshold cannot exceed %d", MaxStock)
	}
	switch strategy {
	case StrategyIncrement:
		switch {
		case amount <= 0:
			errs.Add("amount", "amount must be greater than 0")
		case amount > MaxStock:
			errs.Addf("amount", "amount cannot exceed %d", MaxStock)
		}
	case StrategySetToThreshold:
	default:
		errs.Addf("strategy", "unknown strategy %q", strategy)
	}
	if len(errs) > 0 {
		return &ReplenishResult{Message: "Replenishment validation failed.", Errors: errs, Strategy: strategy, UpdatedProducts: []StockUpdate{}}, nil
	}

	low, err := s.Store.LowStockProducts(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}

	res := &ReplenishResult{Success: true, Errors: FieldErrors{}, Strategy: strategy, UpdatedProducts: []StockUpdate{}}
	for _, p := range low {
		stock, changed := threshold, true
		switch strategy {
		case StrategyIncrement:
			stock, err = s.Store.IncrementStock(ctx, p.ID, amount)
		case StrategySetToThreshold:
			// a concurrent run may already have lifted it past threshold
			changed, err = s.Store.RaiseStock(ctx, p.ID, threshold)
		}
		if errors.Is(err, ErrNotFound) || (err == nil && !changed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update stock of %s: %w", p.ID, err)
		}
		u := StockUpdate{ID: p.ID, Name: p.Name, Stock: stock}
		res.UpdatedProducts = append(res.UpdatedProducts, u)
		s.publish(ctx, EventStockReplenished, p.ID, u)
	}

	res.UpdatedCount = len(res.UpdatedProducts)
	res.Message = fmt.Sprintf("Restocked %d product(s) below %d.", res.UpdatedCount, threshold)
	s.logger().Info("low stock replenished", "strategy", strategy, "threshold", threshold, "updated", res.UpdatedCount)
	return res, nil
}
