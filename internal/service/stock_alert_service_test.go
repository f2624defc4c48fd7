package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/notify"
	"github.com/nexusmart/api/internal/utils"
)

type stubProductRepo struct {
	products map[int]*models.Product
	err      error
}

func (s *stubProductRepo) GetByID(id int) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

type stubAlertRepo struct {
	upsertCalled  bool
	upsertCreated bool
	upsertErr     error
	lastUpsert    *models.StockAlert

	alerts map[int64]*models.StockAlert

	deleted       []int64
	deletedTokens []string
	tokenRows     int64

	active    *models.StockAlert
	marked    []models.StockAlert
	markedErr error

	cleanedBefore time.Time
}

func (s *stubAlertRepo) Upsert(alert *models.StockAlert) (bool, error) {
	s.upsertCalled = true
	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	alert.ID = 42
	s.lastUpsert = alert
	return s.upsertCreated, nil
}

func (s *stubAlertRepo) GetByID(id int64) (*models.StockAlert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (s *stubAlertRepo) ListByUser(userID int) ([]models.StockAlertWithProduct, error) {
	return nil, nil
}

func (s *stubAlertRepo) Delete(id int64) (int64, error) {
	s.deleted = append(s.deleted, id)
	return 1, nil
}

func (s *stubAlertRepo) DeleteByToken(token string) (int64, error) {
	s.deletedTokens = append(s.deletedTokens, token)
	return s.tokenRows, nil
}

func (s *stubAlertRepo) GetActiveForUserAndProduct(userID, productID int) (*models.StockAlert, error) {
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

func (s *stubAlertRepo) MarkNotifiedForProduct(productID int) ([]models.StockAlert, error) {
	if s.markedErr != nil {
		return nil, s.markedErr
	}
	return s.marked, nil
}

func (s *stubAlertRepo) DeleteNotifiedBefore(cutoff time.Time) (int64, error) {
	s.cleanedBefore = cutoff
	return 3, nil
}

type recordingSender struct {
	product *models.Product
	alerts  []models.StockAlert
	calls   int
}

func (r *recordingSender) SendRestockAlerts(_ context.Context, p *models.Product, alerts []models.StockAlert) {
	r.calls++
	r.product = p
	r.alerts = alerts
}

func newTestService(products *stubProductRepo, alerts *stubAlertRepo, sender notify.RestockSender) *StockAlertService {
	if sender == nil {
		sender = notify.NopSender{}
	}
	return NewStockAlertService(alerts, products, sender)
}

func TestSubscribe_NormalizesEmailAndDefaultsChannel(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1, Name: "Widget"}}}
	alerts := &stubAlertRepo{upsertCreated: true}
	svc := newTestService(products, alerts, nil)

	alert, created, err := svc.Subscribe(SubscribeInput{
		ProductID: 1,
		Email:     "  Shopper@Example.COM ",
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "shopper@example.com", alert.Email)
	assert.Equal(t, []string{models.ChannelEmail}, []string(alert.NotifyVia))
	assert.NotEmpty(t, alert.UnsubscribeToken)
}

func TestSubscribe_UnknownProduct(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{}}
	alerts := &stubAlertRepo{}
	svc := newTestService(products, alerts, nil)

	_, _, err := svc.Subscribe(SubscribeInput{ProductID: 99, Email: "a@x.com"})

	assert.ErrorIs(t, err, utils.ErrProductNotFound)
	assert.False(t, alerts.upsertCalled, "no alert row should be written for a missing product")
}

func TestSubscribe_InvalidChannel(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1}}}
	alerts := &stubAlertRepo{}
	svc := newTestService(products, alerts, nil)

	_, _, err := svc.Subscribe(SubscribeInput{
		ProductID: 1,
		Email:     "a@x.com",
		NotifyVia: []string{"email", "carrier-pigeon"},
	})

	assert.ErrorIs(t, err, utils.ErrInvalidChannel)
	assert.False(t, alerts.upsertCalled)
}

func TestSubscribe_ExistingAlertNotCreated(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1}}}
	alerts := &stubAlertRepo{upsertCreated: false}
	svc := newTestService(products, alerts, nil)

	_, created, err := svc.Subscribe(SubscribeInput{ProductID: 1, Email: "a@x.com"})

	require.NoError(t, err)
	assert.False(t, created)
}

func TestUnsubscribe_Owned(t *testing.T) {
	owner := 7
	alerts := &stubAlertRepo{alerts: map[int64]*models.StockAlert{
		10: {ID: 10, UserID: &owner},
	}}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	require.NoError(t, svc.Unsubscribe(10, 7))
	assert.Equal(t, []int64{10}, alerts.deleted)
}

func TestUnsubscribe_NotOwned(t *testing.T) {
	owner := 7
	alerts := &stubAlertRepo{alerts: map[int64]*models.StockAlert{
		10: {ID: 10, UserID: &owner},
	}}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	err := svc.Unsubscribe(10, 8)

	assert.ErrorIs(t, err, utils.ErrAlertForbidden)
	assert.Empty(t, alerts.deleted, "a failed ownership check must not delete the alert")
}

func TestUnsubscribe_AnonymousAlertNotDeletableByUser(t *testing.T) {
	alerts := &stubAlertRepo{alerts: map[int64]*models.StockAlert{
		10: {ID: 10, UserID: nil},
	}}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	assert.ErrorIs(t, svc.Unsubscribe(10, 7), utils.ErrAlertForbidden)
}

func TestUnsubscribe_Missing(t *testing.T) {
	alerts := &stubAlertRepo{alerts: map[int64]*models.StockAlert{}}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	assert.ErrorIs(t, svc.Unsubscribe(99, 7), utils.ErrAlertNotFound)
}

func TestUnsubscribeByToken(t *testing.T) {
	alerts := &stubAlertRepo{tokenRows: 1}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	require.NoError(t, svc.UnsubscribeByToken("nxm_unsub_abc"))
	assert.Equal(t, []string{"nxm_unsub_abc"}, alerts.deletedTokens)

	alerts.tokenRows = 0
	assert.ErrorIs(t, svc.UnsubscribeByToken("nxm_unsub_unknown"), utils.ErrAlertNotFound)
}

func TestCheckSubscribed(t *testing.T) {
	alerts := &stubAlertRepo{}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	_, subscribed, err := svc.CheckSubscribed(7, 1)
	require.NoError(t, err)
	assert.False(t, subscribed)

	alerts.active = &models.StockAlert{ID: 5, ProductID: 1}
	alert, subscribed, err := svc.CheckSubscribed(7, 1)
	require.NoError(t, err)
	assert.True(t, subscribed)
	assert.Equal(t, int64(5), alert.ID)
}

func TestNotifyRestocked_MarksAndDispatches(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1, Name: "Widget", Stock: 12}}}
	alerts := &stubAlertRepo{marked: []models.StockAlert{
		{ID: 1, ProductID: 1, Email: "a@x.com"},
		{ID: 2, ProductID: 1, Email: "b@x.com"},
	}}
	sender := &recordingSender{}
	svc := newTestService(products, alerts, sender)

	n, err := svc.NotifyRestocked(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "Widget", sender.product.Name)
	assert.Len(t, sender.alerts, 2)
}

func TestNotifyRestocked_NoActiveAlerts(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1}}}
	alerts := &stubAlertRepo{}
	sender := &recordingSender{}
	svc := newTestService(products, alerts, sender)

	n, err := svc.NotifyRestocked(context.Background(), 1)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, sender.calls, "an empty batch must not reach the sender")
}

func TestNotifyRestocked_UnknownProduct(t *testing.T) {
	svc := newTestService(&stubProductRepo{products: map[int]*models.Product{}}, &stubAlertRepo{}, nil)

	_, err := svc.NotifyRestocked(context.Background(), 404)

	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestNotifyRestocked_RepoError(t *testing.T) {
	products := &stubProductRepo{products: map[int]*models.Product{1: {ID: 1}}}
	alerts := &stubAlertRepo{markedErr: errors.New("storage down")}
	sender := &recordingSender{}
	svc := newTestService(products, alerts, sender)

	_, err := svc.NotifyRestocked(context.Background(), 1)

	assert.Error(t, err)
	assert.Zero(t, sender.calls)
}

func TestCleanupNotified(t *testing.T) {
	alerts := &stubAlertRepo{}
	svc := newTestService(&stubProductRepo{}, alerts, nil)

	n, err := svc.CleanupNotified(24 * time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), alerts.cleanedBefore, 5*time.Second)
}
