package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/service"
	"github.com/nexusmart/api/internal/utils"
)

// ProductManagementHandler handles admin product CRUD HTTP endpoints.
type ProductManagementHandler struct {
	catalogService *service.CatalogService
	mediaService   *service.MediaService
}

// NewProductManagementHandler constructs a ProductManagementHandler.
func NewProductManagementHandler(catalogService *service.CatalogService, mediaService *service.MediaService) *ProductManagementHandler {
	return &ProductManagementHandler{catalogService: catalogService, mediaService: mediaService}
}

// productRequest is the admin create/update payload.
type productRequest struct {
	Slug        string   `json:"slug" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Price       int      `json:"price" binding:"required,gt=0"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Images      []string `json:"images"`
	IsFeatured  bool     `json:"isFeatured"`
	IsActive    *bool    `json:"isActive"`
}

func (r *productRequest) toModel() *models.Product {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.Product{
		Slug:        r.Slug,
		Name:        r.Name,
		Category:    r.Category,
		Brand:       r.Brand,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Images:      r.Images,
		IsFeatured:  r.IsFeatured,
		IsActive:    active,
	}
}

// CreateProduct handles POST /v1/admin/products
func (h *ProductManagementHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	product := req.toModel()
	if err := h.catalogService.CreateProduct(product); err != nil {
		if errors.Is(err, utils.ErrSlugTaken) {
			utils.Error(c, 409, "SLUG_TAKEN", "A product with this slug already exists")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	utils.Success(c, 201, "Product created", product)
}

// GetProduct handles GET /v1/admin/products/:id
func (h *ProductManagementHandler) GetProduct(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get product")
		return
	}

	utils.Success(c, 200, "Product retrieved", product)
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *ProductManagementHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	product := req.toModel()
	product.ID = id
	if err := h.catalogService.UpdateProduct(c.Request.Context(), product); err != nil {
		switch {
		case errors.Is(err, utils.ErrProductNotFound):
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		case errors.Is(err, utils.ErrSlugTaken):
			utils.Error(c, 409, "SLUG_TAKEN", "A product with this slug already exists")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update product")
		}
		return
	}

	utils.Success(c, 200, "Product updated", product)
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *ProductManagementHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete product")
		return
	}

	utils.Success(c, 200, "Product deleted", nil)
}

// SetFeatured handles PUT /v1/admin/products/:id/featured
// Idempotent: re-applying the current flag is a successful no-op.
func (h *ProductManagementHandler) SetFeatured(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	var req struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.catalogService.SetFeatured(c.Request.Context(), id, *req.Featured); err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update featured flag")
		return
	}

	utils.Success(c, 200, "Featured flag updated", gin.H{"id": id, "featured": *req.Featured})
}

// UpdateStock handles PUT /v1/admin/products/:id/stock
// A 0 -> positive transition triggers the restock notification batch; the
// response reports how many alerts were marked.
func (h *ProductManagementHandler) UpdateStock(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	var req struct {
		Stock *int `json:"stock" binding:"required,gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	marked, err := h.catalogService.UpdateStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update stock")
		return
	}

	utils.Success(c, 200, "Stock updated", gin.H{
		"id":           id,
		"stock":        *req.Stock,
		"alertsMarked": marked,
	})
}

// UploadImage handles POST /v1/admin/products/:id/images
func (h *ProductManagementHandler) UploadImage(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing image file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read image")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to read image")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.mediaService.UploadProductImage(c.Request.Context(), id, fileHeader.Filename, data, contentType)
	if err != nil {
		utils.Error(c, 502, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	if err := h.catalogService.AddProductImage(c.Request.Context(), id, url); err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to attach image")
		return
	}

	utils.Success(c, 201, "Image uploaded", gin.H{"url": url})
}

// paramInt parses an integer path parameter, writing a 400 on failure.
func paramInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
