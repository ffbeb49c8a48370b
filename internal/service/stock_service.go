package service

import (
	"context"
	"fmt"

	"stockroom/internal/csvio"
	"stockroom/internal/events"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// stockService implements StockService.
type stockService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	bus          *events.Bus
	logger       zerolog.Logger
}

// NewStockService creates a new stock service.
func NewStockService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	bus *events.Bus,
	logger zerolog.Logger,
) StockService {
	return &stockService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		bus:          bus,
		logger:       logger.With().Str("service", "stock").Logger(),
	}
}

// Adjust records a quick RESTOCK, SALE or ADJUST change. Any signed-in
// role may do this.
func (s *stockService) Adjust(ctx context.Context, actor model.Actor, productID uuid.UUID, req *model.AdjustRequest) (resp *model.AdjustResponse, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	movement, err := stock.NewAdjustment(productID, *req, actor.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.movementRepo.Create(ctx, tx, movement); err != nil {
		s.logger.Warn().
			Err(err).
			Str("product_id", productID.String()).
			Int("change", movement.Change).
			Msg("stock movement rejected")
		return nil, err
	}

	qty, err := s.productRepo.Qty(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("reason", string(movement.Reason)).
		Int("change", movement.Change).
		Int("qty", qty).
		Msg("stock adjusted")

	s.bus.PublishProductsChanged("UPDATE", events.SourceService)
	return &model.AdjustResponse{Movement: movement, Qty: qty}, nil
}

// Drift compares every product's quantity with the sum of its movements.
func (s *stockService) Drift(ctx context.Context) ([]model.LedgerDrift, error) {
	products, err := s.productRepo.Export(ctx, csvio.DefaultExportLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products for drift check")
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	}

	drift := []model.LedgerDrift{}
	for _, p := range products {
		sum, err := s.movementRepo.SumByProduct(ctx, p.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to sum movements")
			return nil, fmt.Errorf("failed to check ledger: %w", err)
		}
		if sum == p.Qty {
			continue
		}
		s.logger.Warn().
			Str("product_id", p.ID.String()).
			Int("qty", p.Qty).
			Int("ledger_sum", sum).
			Msg("quantity differs from ledger")
		drift = append(drift, model.LedgerDrift{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Qty:       p.Qty,
			LedgerSum: sum,
		})
	}
	return drift, nil
}
