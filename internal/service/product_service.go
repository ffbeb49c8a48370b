package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"stockroom/internal/events"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PageSize is the number of products per catalogue page.
const PageSize = 40

// UncategorizedFilter selects products without a category.
const UncategorizedFilter = "__none__"

var barcodePattern = regexp.MustCompile(`^\d{6,}$`)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	bus          *events.Bus
	categories   categoryCache
	logger       zerolog.Logger
}

// NewProductService creates a new product service. The category cache is
// dropped whenever the bus reports a catalogue change.
func NewProductService(
	productRepo repository.ProductRepository,
	movementRepo repository.MovementRepository,
	bus *events.Bus,
	logger zerolog.Logger,
) (ProductService, error) {
	s := &productService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		bus:          bus,
		logger:       logger.With().Str("service", "product").Logger(),
	}

	if _, err := bus.OnProductsChanged(s.onProductsChanged); err != nil {
		return nil, fmt.Errorf("failed to watch catalogue changes: %w", err)
	}
	return s, nil
}

// List retrieves one page of the catalogue. Pages start at 1.
func (s *productService) List(ctx context.Context, query, category string, page int) (*model.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	filter := model.ProductFilter{
		Query:  strings.TrimSpace(query),
		Limit:  PageSize + 1,
		Offset: (page - 1) * PageSize,
	}
	filter.ExactSKU = barcodePattern.MatchString(filter.Query)

	switch category = strings.TrimSpace(category); category {
	case "":
	case UncategorizedFilter:
		filter.Uncategorized = true
	default:
		filter.Category = category
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Str("query", filter.Query).
			Int("page", page).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	hasMore := len(products) > PageSize
	if hasMore {
		products = products[:PageSize]
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("page", page).
		Bool("barcode", filter.ExactSKU).
		Msg("listed products")

	return &model.ProductPage{Items: products, Page: page, HasMore: hasMore}, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create inserts the product with zero stock and appends the initial
// ADJUST movement in the same transaction.
func (s *productService) Create(ctx context.Context, actor model.Actor, req *model.CreateProductRequest) (product *model.Product, err error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	input, err := normaliseInput(req.ProductInput)
	if err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, input.SKU, uuid.Nil); err != nil {
		return nil, err
	}

	product = &model.Product{
		ID:        uuid.New(),
		Name:      input.Name,
		SKU:       input.SKU,
		Category:  input.Category,
		CostPrice: input.CostPrice,
		SalePrice: input.SalePrice,
		ImageURL:  input.ImageURL,
	}

	initial, err := stock.InitialMovement(product.ID, stock.ParseQuantity(string(req.Qty)), actor.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.productRepo.Create(ctx, tx, product); err != nil {
		return nil, err
	}

	if initial != nil {
		if err = s.movementRepo.Create(ctx, tx, initial); err != nil {
			return nil, err
		}
		product.Qty = stock.Apply(product.Qty, *initial)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("actor", actor.ID.String()).
		Int("qty", product.Qty).
		Msg("product created successfully")

	s.bus.PublishProductsChanged("INSERT", events.SourceService)
	return product, nil
}

// Update reconciles the edited quantity against the quantity observed when
// the edit opened, then saves the remaining fields. Both writes share one
// transaction.
func (s *productService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateProductRequest) (resp *model.UpdateProductResponse, err error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if req.ObservedQty == nil {
		return nil, model.ErrObservedQtyRequired
	}

	input, err := normaliseInput(req.ProductInput)
	if err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, input.SKU, id); err != nil {
		return nil, err
	}

	movement, err := stock.Reconcile(id, *req.ObservedQty, stock.ParseQuantity(string(req.Qty)), actor.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if movement != nil {
		if err = s.movementRepo.Create(ctx, tx, movement); err != nil {
			return nil, err
		}
	}

	product, err := s.productRepo.UpdateFields(ctx, tx, id, input)
	if err != nil {
		return nil, err
	}
	if product == nil {
		err = model.ErrProductNotFound
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	event := s.logger.Info().Str("product_id", id.String()).Str("actor", actor.ID.String())
	if movement != nil {
		event = event.Int("change", movement.Change)
	}
	event.Msg("product updated successfully")

	s.bus.PublishProductsChanged("UPDATE", events.SourceService)
	return &model.UpdateProductResponse{Product: product, Movement: movement}, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := requireManager(actor); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("product_id", id.String()).
		Str("actor", actor.ID.String()).
		Msg("product deleted")

	s.bus.PublishProductsChanged("DELETE", events.SourceService)
	return nil
}

// Categories serves the category list from cache, loading it on a miss.
func (s *productService) Categories(ctx context.Context) ([]string, error) {
	cached, ok, gen := s.categories.get()
	if ok {
		return cached, nil
	}

	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load categories")
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	s.categories.set(categories, gen)
	s.logger.Debug().Int("count", len(categories)).Msg("category cache loaded")
	return categories, nil
}

func (s *productService) onProductsChanged(e events.ProductsChanged) {
	s.categories.invalidate()
	s.logger.Debug().Str("op", e.Op).Str("source", e.Source).Msg("category cache invalidated")
}

func (s *productService) checkSKU(ctx context.Context, sku *string, excludeID uuid.UUID) error {
	if sku == nil {
		return nil
	}

	exists, err := s.productRepo.SKUExists(ctx, *sku, excludeID)
	if err != nil {
		s.logger.Error().Err(err).Str("sku", *sku).Msg("failed to check sku")
		return fmt.Errorf("failed to check sku: %w", err)
	}
	if exists {
		return model.ErrDuplicateSKU
	}
	return nil
}

// normaliseInput trims text fields. Blank optional fields become null.
func normaliseInput(in model.ProductInput) (model.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, model.ErrNameRequired
	}

	in.SKU = trimOptional(in.SKU)
	in.Category = trimOptional(in.Category)
	in.ImageURL = trimOptional(in.ImageURL)
	return in, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// categoryCache holds the category list between catalogue changes. The
// generation counter stops a load that raced an invalidation from storing
// stale data.
type categoryCache struct {
	mu     sync.Mutex
	items  []string
	loaded bool
	gen    uint64
}

func (c *categoryCache) get() ([]string, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return nil, false, c.gen
	}
	return append([]string(nil), c.items...), true, c.gen
}

func (c *categoryCache) set(items []string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.items = append([]string(nil), items...)
	c.loaded = true
}

func (c *categoryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.loaded = false
	c.items = nil
}
