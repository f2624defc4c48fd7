package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/nexusmart/api/internal/cache"
	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/repository"
	"github.com/nexusmart/api/internal/utils"
)

// restockNotifier lets the catalog trigger the stock-alert batch without a
// direct dependency on the alert service; wired post-construction.
type restockNotifier interface {
	NotifyRestocked(ctx context.Context, productID int) (int, error)
}

// CatalogService provides product catalog business logic with a Redis
// cache-aside layer over detail reads.
type CatalogService struct {
	productRepo *repository.ProductRepository
	cache       *cache.ProductCache
	restock     restockNotifier
}

// NewCatalogService constructs a CatalogService. The cache may be nil in
// tests; reads then go straight to the repository.
func NewCatalogService(productRepo *repository.ProductRepository, productCache *cache.ProductCache) *CatalogService {
	return &CatalogService{productRepo: productRepo, cache: productCache}
}

// SetRestockNotifier wires the stock-alert service in after construction.
func (s *CatalogService) SetRestockNotifier(n restockNotifier) {
	s.restock = n
}

// ListProducts returns active products with filters and pagination plus the
// total item count.
func (s *CatalogService) ListProducts(filter *repository.ProductFilter) ([]models.Product, int, error) {
	return s.productRepo.GetAllPaged(filter)
}

// GetProductBySlug returns a product for the storefront detail page,
// consulting the cache first.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if s.cache != nil {
		if p, err := s.cache.GetBySlug(ctx, slug); err == nil {
			return p, nil
		}
	}

	p, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("Failed to cache product")
		}
	}
	return p, nil
}

// GetProductByID returns a product by id, consulting the cache first.
func (s *CatalogService) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	if s.cache != nil {
		if p, err := s.cache.GetByID(ctx, id); err == nil {
			return p, nil
		}
	}

	p, err := s.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			log.Warn().Err(err).Int("id", id).Msg("Failed to cache product")
		}
	}
	return p, nil
}

// CreateProduct creates a new catalog product.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	err := s.productRepo.Create(product)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return utils.ErrSlugTaken
		}
		return err
	}
	return nil
}

// UpdateProduct updates an existing product and invalidates its cache entry.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.productRepo.Update(product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return utils.ErrSlugTaken
		}
		return err
	}
	s.invalidate(ctx, product)
	return nil
}

// DeleteProduct removes a product; its alerts cascade away with it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}

	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}
	s.invalidate(ctx, product)
	return nil
}

// SetFeatured applies the featured flag. Idempotent: repeating the call with
// the same flag leaves the catalog in the same state.
func (s *CatalogService) SetFeatured(ctx context.Context, id int, featured bool) error {
	if err := s.productRepo.SetFeatured(id, featured); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}

	if product, err := s.productRepo.GetByID(id); err == nil {
		s.invalidate(ctx, product)
	}
	return nil
}

// UpdateStock sets a product's stock level. A 0 -> positive transition is a
// restock and triggers the stock-alert notification batch inline. Returns
// the number of alerts marked (zero when no restock happened).
func (s *CatalogService) UpdateStock(ctx context.Context, id, stock int) (int, error) {
	oldStock, err := s.productRepo.UpdateStock(id, stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, utils.ErrProductNotFound
		}
		return 0, err
	}

	if product, err := s.productRepo.GetByID(id); err == nil {
		s.invalidate(ctx, product)
	}

	if oldStock > 0 || stock <= 0 || s.restock == nil {
		return 0, nil
	}

	marked, err := s.restock.NotifyRestocked(ctx, id)
	if err != nil {
		// The stock write itself succeeded; the sweep worker will pick the
		// pending alerts up on its next pass.
		log.Error().Err(err).Int("product_id", id).Msg("Restock notification batch failed")
		return 0, nil
	}
	return marked, nil
}

// AddProductImage appends an uploaded image URL to the product.
func (s *CatalogService) AddProductImage(ctx context.Context, id int, imageURL string) error {
	if err := s.productRepo.AddImage(id, imageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}

	if product, err := s.productRepo.GetByID(id); err == nil {
		s.invalidate(ctx, product)
	}
	return nil
}

// GetCategories returns distinct categories for storefront filters.
func (s *CatalogService) GetCategories() ([]string, error) {
	return s.productRepo.GetDistinctCategories()
}

// GetBrands returns distinct brands, optionally scoped to a category.
func (s *CatalogService) GetBrands(category string) ([]string, error) {
	return s.productRepo.GetDistinctBrands(category)
}

func (s *CatalogService) invalidate(ctx context.Context, product *models.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, product); err != nil {
		log.Warn().Err(err).Int("id", product.ID).Msg("Failed to invalidate product cache")
	}
}
