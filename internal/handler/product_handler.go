package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexusmart/api/internal/repository"
	"github.com/nexusmart/api/internal/service"
	"github.com/nexusmart/api/internal/utils"
)

// ProductHandler handles public storefront catalog endpoints.
type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// GetProducts returns the product list with optional filters and pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter := &repository.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Search:   c.Query("search"),
		Featured: c.Query("featured") == "true",
		Page:     1,
		Limit:    50,
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	products, total, err := h.catalogService.ListProducts(filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get products")
		return
	}

	utils.SuccessWithPagination(c, 200, "Products retrieved successfully", gin.H{
		"products": products,
	}, filter.Page, filter.Limit, total)
}

// GetProduct returns a single product by slug for the detail page.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")

	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get product")
		return
	}

	utils.Success(c, 200, "Product retrieved successfully", product)
}

// GetCategories returns distinct categories for storefront filters.
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.GetCategories()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved successfully", gin.H{"categories": categories})
}

// GetBrands returns distinct brands, optionally filtered by category.
func (h *ProductHandler) GetBrands(c *gin.Context) {
	brands, err := h.catalogService.GetBrands(c.Query("category"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get brands")
		return
	}
	utils.Success(c, 200, "Brands retrieved successfully", gin.H{"brands": brands})
}
