package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nexusmart/api/internal/models"
)

// ProductRepository handles data access for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilter holds filters for catalog listing queries.
type ProductFilter struct {
	Category string
	Brand    string
	Search   string
	Featured bool
	Page     int
	Limit    int
}

// GetAllPaged returns active products with filters and pagination and also
// returns the total count. Empty string filters are ignored. Page begins at 1.
func (r *ProductRepository) GetAllPaged(f *ProductFilter) ([]models.Product, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	offset := (f.Page - 1) * f.Limit

	const baseWhere = `WHERE ($1 = '' OR category = $1)
        AND ($2 = '' OR brand = $2)
        AND ($3 = '' OR name ILIKE '%' || $3 || '%')
        AND (NOT $4 OR is_featured = true)
        AND is_active = true`

	countQuery := `SELECT COUNT(1) FROM products ` + baseWhere
	var total int
	if err := r.db.Get(&total, countQuery, f.Category, f.Brand, f.Search, f.Featured); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM products ` + baseWhere + `
        ORDER BY category, brand, name LIMIT $5 OFFSET $6`
	var products []models.Product
	if err := r.db.Select(&products, listQuery, f.Category, f.Brand, f.Search, f.Featured, f.Limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id int) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.Get(&p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySlug returns a single product by slug.
func (r *ProductRepository) GetBySlug(slug string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE slug = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.Get(&p, slug); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new product.
func (r *ProductRepository) Create(product *models.Product) error {
	const q = `INSERT INTO products (slug, name, category, brand, description, price, stock, images, is_featured, is_active)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		product.Slug,
		product.Name,
		product.Category,
		product.Brand,
		product.Description,
		product.Price,
		product.Stock,
		pq.Array(product.Images),
		product.IsFeatured,
		product.IsActive,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// Update updates an existing product.
func (r *ProductRepository) Update(product *models.Product) error {
	const q = `UPDATE products
              SET slug = $1, name = $2, category = $3, brand = $4,
                  description = $5, price = $6, stock = $7, images = $8,
                  is_featured = $9, is_active = $10, updated_at = NOW()
              WHERE id = $11
              RETURNING updated_at`

	return r.db.QueryRowx(q,
		product.Slug,
		product.Name,
		product.Category,
		product.Brand,
		product.Description,
		product.Price,
		product.Stock,
		pq.Array(product.Images),
		product.IsFeatured,
		product.IsActive,
		product.ID,
	).Scan(&product.UpdatedAt)
}

// Delete deletes a product by ID. Alerts for the product go with it via the
// foreign key cascade.
func (r *ProductRepository) Delete(id int) error {
	const q = `DELETE FROM products WHERE id = $1`
	res, err := r.db.Exec(q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStock sets the stock level of a product and returns the previous
// level alongside the new one. Reading the old value in the same statement
// keeps the 0 -> positive restock transition detectable without a race
// between concurrent stock writes.
func (r *ProductRepository) UpdateStock(id, stock int) (oldStock int, err error) {
	const q = `UPDATE products p
              SET stock = $2, updated_at = NOW()
              FROM (SELECT stock AS old_stock FROM products WHERE id = $1 FOR UPDATE) prev
              WHERE p.id = $1
              RETURNING prev.old_stock`

	err = r.db.QueryRowx(q, id, stock).Scan(&oldStock)
	return oldStock, err
}

// SetFeatured sets the featured flag of a product. Idempotent: re-applying
// the same flag is a no-op beyond the timestamp.
func (r *ProductRepository) SetFeatured(id int, featured bool) error {
	const q = `UPDATE products SET is_featured = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.Exec(q, id, featured)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddImage appends an image URL to the product's image list.
func (r *ProductRepository) AddImage(id int, imageURL string) error {
	const q = `UPDATE products SET images = array_append(images, $2), updated_at = NOW() WHERE id = $1`
	res, err := r.db.Exec(q, id, imageURL)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetDistinctCategories returns all distinct categories of active products.
func (r *ProductRepository) GetDistinctCategories() ([]string, error) {
	const q = `SELECT DISTINCT category FROM products WHERE category != '' AND is_active = true ORDER BY category`
	var categories []string
	if err := r.db.Select(&categories, q); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetDistinctBrands returns all distinct brands, optionally filtered by category.
func (r *ProductRepository) GetDistinctBrands(category string) ([]string, error) {
	q := `SELECT DISTINCT brand FROM products WHERE brand != '' AND is_active = true`
	args := []interface{}{}
	if category != "" {
		q += ` AND category = $1`
		args = append(args, category)
	}
	q += ` ORDER BY brand`

	var brands []string
	if err := r.db.Select(&brands, q, args...); err != nil {
		return nil, err
	}
	return brands, nil
}

// GetRestockedWithPendingAlerts returns ids of in-stock products that still
// have active alerts. Used by the restock sweep to catch stock changes made
// outside the API.
func (r *ProductRepository) GetRestockedWithPendingAlerts() ([]int, error) {
	const q = `
        SELECT DISTINCT p.id
        FROM products p
        JOIN stock_alerts a ON a.product_id = p.id AND a.is_notified = false
        WHERE p.stock > 0`

	var ids []int
	if err := r.db.Select(&ids, q); err != nil {
		return nil, err
	}
	return ids, nil
}
