package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexusmart/api/internal/models"
)

// StockAlertRepository handles data access for stock alerts.
type StockAlertRepository struct {
	db *sqlx.DB
}

// NewStockAlertRepository creates a new StockAlertRepository.
func NewStockAlertRepository(db *sqlx.DB) *StockAlertRepository {
	return &StockAlertRepository{db: db}
}

// upsertRow is the scan target for Upsert; "inserted" distinguishes a fresh
// row from a conflict hit on the (product_id, email) unique index.
type upsertRow struct {
	models.StockAlert
	Inserted bool `db:"inserted"`
}

// Upsert inserts a stock alert or re-arms the existing row for the same
// (product_id, email). The whole find-or-create step is a single conditional
// upsert so concurrent subscribes cannot produce duplicate active alerts:
//   - no existing row: insert, created = true
//   - existing active row: returned unchanged (idempotent no-op)
//   - existing notified row: contact fields refreshed from the new request,
//     is_notified reset to false, notified_at cleared
//
// The CASE guards reference the pre-update row, so an active alert keeps its
// original contact details and unsubscribe token.
func (r *StockAlertRepository) Upsert(alert *models.StockAlert) (created bool, err error) {
	const q = `
        INSERT INTO stock_alerts (product_id, user_id, email, phone, notify_via, unsubscribe_token)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (product_id, email) DO UPDATE SET
            user_id     = CASE WHEN stock_alerts.is_notified THEN EXCLUDED.user_id     ELSE stock_alerts.user_id     END,
            phone       = CASE WHEN stock_alerts.is_notified THEN EXCLUDED.phone       ELSE stock_alerts.phone       END,
            notify_via  = CASE WHEN stock_alerts.is_notified THEN EXCLUDED.notify_via  ELSE stock_alerts.notify_via  END,
            notified_at = CASE WHEN stock_alerts.is_notified THEN NULL                 ELSE stock_alerts.notified_at END,
            is_notified = false
        RETURNING *, (xmax = 0) AS inserted`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	var row upsertRow
	if err := stmt.Get(&row,
		alert.ProductID,
		alert.UserID,
		alert.Email,
		alert.Phone,
		alert.NotifyVia,
		alert.UnsubscribeToken,
	); err != nil {
		return false, err
	}

	*alert = row.StockAlert
	return row.Inserted, nil
}

// GetByID returns a single alert by id.
func (r *StockAlertRepository) GetByID(id int64) (*models.StockAlert, error) {
	const q = `SELECT * FROM stock_alerts WHERE id = $1 LIMIT 1`
	var a models.StockAlert
	if err := r.db.Get(&a, q, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns all alerts owned by a user, newest first, with a summary
// of the watched product joined in.
func (r *StockAlertRepository) ListByUser(userID int) ([]models.StockAlertWithProduct, error) {
	const q = `
        SELECT a.*,
               p.slug   AS product_slug,
               p.name   AS product_name,
               p.price  AS product_price,
               p.stock  AS product_stock,
               p.images AS product_images
        FROM stock_alerts a
        JOIN products p ON p.id = a.product_id
        WHERE a.user_id = $1
        ORDER BY a.created_at DESC`

	var alerts []models.StockAlertWithProduct
	if err := r.db.Select(&alerts, q, userID); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Delete removes an alert by id. Returns the number of rows removed.
func (r *StockAlertRepository) Delete(id int64) (int64, error) {
	const q = `DELETE FROM stock_alerts WHERE id = $1`
	res, err := r.db.Exec(q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByToken removes an alert by its unsubscribe token. Returns the number
// of rows removed.
func (r *StockAlertRepository) DeleteByToken(token string) (int64, error) {
	const q = `DELETE FROM stock_alerts WHERE unsubscribe_token = $1`
	res, err := r.db.Exec(q, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetActiveForUserAndProduct returns the caller's active (un-notified) alert
// for a product, or sql.ErrNoRows when none exists.
func (r *StockAlertRepository) GetActiveForUserAndProduct(userID, productID int) (*models.StockAlert, error) {
	const q = `
        SELECT * FROM stock_alerts
        WHERE user_id = $1 AND product_id = $2 AND is_notified = false
        LIMIT 1`

	var a models.StockAlert
	if err := r.db.Get(&a, q, userID, productID); err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkNotifiedForProduct flips every active alert for a product to notified
// in one statement and returns the marked rows. Single multi-row update: a
// concurrent subscribe either lands before the update (and is marked) or
// after (and stays active for the next restock) — no alert can be stranded
// between the two states.
func (r *StockAlertRepository) MarkNotifiedForProduct(productID int) ([]models.StockAlert, error) {
	const q = `
        UPDATE stock_alerts
        SET is_notified = true, notified_at = NOW()
        WHERE product_id = $1 AND is_notified = false
        RETURNING *`

	var alerts []models.StockAlert
	if err := r.db.Select(&alerts, q, productID); err != nil {
		return nil, err
	}
	return alerts, nil
}

// DeleteNotifiedBefore purges alerts that were notified before the cutoff.
// Returns the number of rows removed.
func (r *StockAlertRepository) DeleteNotifiedBefore(cutoff time.Time) (int64, error) {
	const q = `DELETE FROM stock_alerts WHERE is_notified = true AND notified_at < $1`
	res, err := r.db.Exec(q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
