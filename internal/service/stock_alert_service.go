package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/notify"
	"github.com/nexusmart/api/internal/utils"
)

// alertProductRepo is the slice of the product repository the alert service
// needs: existence checks and restock metadata for dispatch.
type alertProductRepo interface {
	GetByID(id int) (*models.Product, error)
}

// alertRepo is the persistence surface for stock alerts.
type alertRepo interface {
	Upsert(alert *models.StockAlert) (created bool, err error)
	GetByID(id int64) (*models.StockAlert, error)
	ListByUser(userID int) ([]models.StockAlertWithProduct, error)
	Delete(id int64) (int64, error)
	DeleteByToken(token string) (int64, error)
	GetActiveForUserAndProduct(userID, productID int) (*models.StockAlert, error)
	MarkNotifiedForProduct(productID int) ([]models.StockAlert, error)
	DeleteNotifiedBefore(cutoff time.Time) (int64, error)
}

// StockAlertService tracks who wants to be told when a product is back in
// stock and performs the restock-notification batch transition.
type StockAlertService struct {
	alertRepo   alertRepo
	productRepo alertProductRepo
	sender      notify.RestockSender
}

// NewStockAlertService constructs a StockAlertService.
func NewStockAlertService(alertRepo alertRepo, productRepo alertProductRepo, sender notify.RestockSender) *StockAlertService {
	return &StockAlertService{
		alertRepo:   alertRepo,
		productRepo: productRepo,
		sender:      sender,
	}
}

// SubscribeInput carries a subscribe request after transport decoding.
type SubscribeInput struct {
	ProductID int
	Email     string
	Phone     *string
	NotifyVia []string
	UserID    *int
}

// Subscribe registers interest in a product restock. Created reports whether
// a new alert row was made; false means an existing subscription was returned
// unchanged (still active) or re-armed (previously notified).
func (s *StockAlertService) Subscribe(in SubscribeInput) (*models.StockAlert, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	channels := in.NotifyVia
	if len(channels) == 0 {
		channels = []string{models.ChannelEmail}
	}
	for _, ch := range channels {
		if !models.ValidChannel(ch) {
			return nil, false, utils.ErrInvalidChannel
		}
	}

	if _, err := s.productRepo.GetByID(in.ProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, utils.ErrProductNotFound
		}
		return nil, false, err
	}

	token, err := utils.GenerateUnsubscribeToken()
	if err != nil {
		return nil, false, err
	}

	alert := &models.StockAlert{
		ProductID:        in.ProductID,
		UserID:           in.UserID,
		Email:            email,
		Phone:            in.Phone,
		NotifyVia:        channels,
		UnsubscribeToken: token,
	}

	created, err := s.alertRepo.Upsert(alert)
	if err != nil {
		return nil, false, err
	}

	log.Debug().
		Int64("alert_id", alert.ID).
		Int("product_id", alert.ProductID).
		Bool("created", created).
		Msg("Stock alert subscribe")

	return alert, created, nil
}

// ListForUser returns the caller's alerts, newest first, with the watched
// product summary joined in.
func (s *StockAlertService) ListForUser(userID int) ([]models.StockAlertWithProduct, error) {
	return s.alertRepo.ListByUser(userID)
}

// Unsubscribe deletes an alert owned by the caller.
func (s *StockAlertService) Unsubscribe(alertID int64, userID int) error {
	alert, err := s.alertRepo.GetByID(alertID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrAlertNotFound
		}
		return err
	}

	if alert.UserID == nil || *alert.UserID != userID {
		return utils.ErrAlertForbidden
	}

	n, err := s.alertRepo.Delete(alertID)
	if err != nil {
		return err
	}
	if n == 0 {
		// Deleted concurrently between the ownership check and here.
		return utils.ErrAlertNotFound
	}
	return nil
}

// UnsubscribeByToken deletes an alert via the token embedded in restock
// emails, giving anonymous subscribers an exit path.
func (s *StockAlertService) UnsubscribeByToken(token string) error {
	n, err := s.alertRepo.DeleteByToken(token)
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrAlertNotFound
	}
	return nil
}

// CheckSubscribed reports whether the user holds an active (un-notified)
// alert for the product, returning it when present.
func (s *StockAlertService) CheckSubscribed(userID, productID int) (*models.StockAlert, bool, error) {
	alert, err := s.alertRepo.GetActiveForUserAndProduct(userID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return alert, true, nil
}

// NotifyRestocked marks every active alert for a product as notified in a
// single batch and hands the marked rows to the restock sender. Returns the
// number of alerts marked. The contract ends at "selected and marked";
// delivery is the sender's problem.
func (s *StockAlertService) NotifyRestocked(ctx context.Context, productID int) (int, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, utils.ErrProductNotFound
		}
		return 0, err
	}

	alerts, err := s.alertRepo.MarkNotifiedForProduct(productID)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	log.Info().
		Int("product_id", productID).
		Str("product", product.Name).
		Int("alerts", len(alerts)).
		Msg("Restock alerts marked for dispatch")

	s.sender.SendRestockAlerts(ctx, product, alerts)
	return len(alerts), nil
}

// CleanupNotified purges alerts notified longer ago than the retention
// window. Returns the number of rows removed.
func (s *StockAlertService) CleanupNotified(retention time.Duration) (int64, error) {
	return s.alertRepo.DeleteNotifiedBefore(time.Now().Add(-retention))
}
