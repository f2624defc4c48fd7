package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/service"
	"github.com/nexusmart/api/internal/utils"
)

type stubAlertService struct {
	subscribeAlert   *models.StockAlert
	subscribeCreated bool
	subscribeErr     error
	lastSubscribe    service.SubscribeInput

	listAlerts []models.StockAlertWithProduct
	listErr    error

	unsubscribeErr error
	lastAlertID    int64
	lastUserID     int

	tokenErr  error
	lastToken string

	checkAlert      *models.StockAlert
	checkSubscribed bool
	checkErr        error
}

func (s *stubAlertService) Subscribe(in service.SubscribeInput) (*models.StockAlert, bool, error) {
	s.lastSubscribe = in
	return s.subscribeAlert, s.subscribeCreated, s.subscribeErr
}

func (s *stubAlertService) ListForUser(userID int) ([]models.StockAlertWithProduct, error) {
	s.lastUserID = userID
	return s.listAlerts, s.listErr
}

func (s *stubAlertService) Unsubscribe(alertID int64, userID int) error {
	s.lastAlertID = alertID
	s.lastUserID = userID
	return s.unsubscribeErr
}

func (s *stubAlertService) UnsubscribeByToken(token string) error {
	s.lastToken = token
	return s.tokenErr
}

func (s *stubAlertService) CheckSubscribed(userID, productID int) (*models.StockAlert, bool, error) {
	s.lastUserID = userID
	return s.checkAlert, s.checkSubscribed, s.checkErr
}

func newAlertTestRouter(svc *stubAlertService, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStockAlertHandler(svc)

	r := gin.New()
	r.POST("/v1/stock-alerts", h.Subscribe)
	r.GET("/v1/stock-alerts/unsubscribe/:token", h.UnsubscribeByToken)

	authed := r.Group("")
	authed.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	authed.GET("/v1/stock-alerts/my-alerts", h.MyAlerts)
	authed.GET("/v1/stock-alerts/check/:productId", h.CheckSubscribed)
	authed.DELETE("/v1/stock-alerts/:alertId", h.Unsubscribe)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSubscribeHandler_Created(t *testing.T) {
	svc := &stubAlertService{
		subscribeAlert:   &models.StockAlert{ID: 1, ProductID: 3, Email: "a@x.com"},
		subscribeCreated: true,
	}
	r := newAlertTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodPost, "/v1/stock-alerts", gin.H{
		"productId": 3,
		"email":     "a@x.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, svc.lastSubscribe.ProductID)
	assert.Nil(t, svc.lastSubscribe.UserID, "anonymous subscribe must not carry a user id")
}

func TestSubscribeHandler_AlreadySubscribed(t *testing.T) {
	svc := &stubAlertService{
		subscribeAlert: &models.StockAlert{ID: 1, ProductID: 3, Email: "a@x.com"},
	}
	r := newAlertTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodPost, "/v1/stock-alerts", gin.H{
		"productId": 3,
		"email":     "a@x.com",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Already subscribed", resp.Message)
}

func TestSubscribeHandler_AuthenticatedAttachesUser(t *testing.T) {
	utils.InitJWT("test-secret")
	token, err := utils.GenerateJWT(42, "a@x.com", false)
	require.NoError(t, err)

	svc := &stubAlertService{
		subscribeAlert:   &models.StockAlert{ID: 1},
		subscribeCreated: true,
	}
	r := newAlertTestRouter(svc, 0)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"productId": 3, "email": "a@x.com"}))
	req := httptest.NewRequest(http.MethodPost, "/v1/stock-alerts", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastSubscribe.UserID)
	assert.Equal(t, 42, *svc.lastSubscribe.UserID)
}

func TestSubscribeHandler_ProductNotFound(t *testing.T) {
	svc := &stubAlertService{subscribeErr: utils.ErrProductNotFound}
	r := newAlertTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodPost, "/v1/stock-alerts", gin.H{
		"productId": 99,
		"email":     "a@x.com",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
}

func TestSubscribeHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing email", gin.H{"productId": 3}},
		{"bad email", gin.H{"productId": 3, "email": "not-an-email"}},
		{"missing product", gin.H{"email": "a@x.com"}},
		{"bad channel", gin.H{"productId": 3, "email": "a@x.com", "notifyVia": []string{"fax"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAlertService{}
			r := newAlertTestRouter(svc, 0)

			w := doJSON(t, r, http.MethodPost, "/v1/stock-alerts", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMyAlertsHandler(t *testing.T) {
	svc := &stubAlertService{listAlerts: []models.StockAlertWithProduct{
		{StockAlert: models.StockAlert{ID: 1, ProductID: 3}, ProductSlug: "widget", ProductName: "Widget"},
	}}
	r := newAlertTestRouter(svc, 7)

	w := doJSON(t, r, http.MethodGet, "/v1/stock-alerts/my-alerts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, svc.lastUserID)
	assert.Contains(t, w.Body.String(), "widget")
}

func TestUnsubscribeHandler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{"success", "/v1/stock-alerts/10", nil, http.StatusOK},
		{"not found", "/v1/stock-alerts/10", utils.ErrAlertNotFound, http.StatusNotFound},
		{"forbidden", "/v1/stock-alerts/10", utils.ErrAlertForbidden, http.StatusForbidden},
		{"bad id", "/v1/stock-alerts/zero", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAlertService{unsubscribeErr: tt.err}
			r := newAlertTestRouter(svc, 7)

			w := doJSON(t, r, http.MethodDelete, tt.path, nil)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, int64(10), svc.lastAlertID)
				assert.Equal(t, 7, svc.lastUserID)
			}
		})
	}
}

func TestUnsubscribeByTokenHandler(t *testing.T) {
	svc := &stubAlertService{}
	r := newAlertTestRouter(svc, 0)

	w := doJSON(t, r, http.MethodGet, "/v1/stock-alerts/unsubscribe/nxm_unsub_abc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nxm_unsub_abc", svc.lastToken)

	svc.tokenErr = utils.ErrAlertNotFound
	w = doJSON(t, r, http.MethodGet, "/v1/stock-alerts/unsubscribe/nxm_unsub_bad", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckSubscribedHandler(t *testing.T) {
	svc := &stubAlertService{
		checkAlert:      &models.StockAlert{ID: 5, ProductID: 3},
		checkSubscribed: true,
	}
	r := newAlertTestRouter(svc, 7)

	w := doJSON(t, r, http.MethodGet, "/v1/stock-alerts/check/3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isSubscribed":true`)

	w = doJSON(t, r, http.MethodGet, "/v1/stock-alerts/check/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
