package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/nexusmart/api/internal/middleware"
	"github.com/nexusmart/api/internal/models"
	"github.com/nexusmart/api/internal/service"
	"github.com/nexusmart/api/internal/utils"
)

// alertService is the slice of the stock-alert service the handler consumes.
type alertService interface {
	Subscribe(in service.SubscribeInput) (*models.StockAlert, bool, error)
	ListForUser(userID int) ([]models.StockAlertWithProduct, error)
	Unsubscribe(alertID int64, userID int) error
	UnsubscribeByToken(token string) error
	CheckSubscribed(userID, productID int) (*models.StockAlert, bool, error)
}

// StockAlertHandler handles stock-alert HTTP endpoints.
type StockAlertHandler struct {
	service   alertService
	validator *validator.Validate
}

// NewStockAlertHandler constructs a StockAlertHandler.
func NewStockAlertHandler(s alertService) *StockAlertHandler {
	return &StockAlertHandler{service: s, validator: validator.New()}
}

// subscribeRequest is the subscribe payload. Anonymous subscribes carry only
// an email; authenticated ones also get the account attached for ownership.
type subscribeRequest struct {
	ProductID int      `json:"productId" validate:"required,gt=0"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     *string  `json:"phone" validate:"omitempty,min=7,max=20"`
	NotifyVia []string `json:"notifyVia" validate:"omitempty,dive,oneof=email sms push"`
}

// Subscribe handles POST /v1/stock-alerts
// 201 with the new alert, or 200 with the existing/re-armed one.
func (h *StockAlertHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", err.Error())
		return
	}

	in := service.SubscribeInput{
		ProductID: req.ProductID,
		Email:     req.Email,
		Phone:     req.Phone,
		NotifyVia: req.NotifyVia,
	}

	// The subscribe endpoint is public so guest carts can use it, but an
	// authenticated caller gets the alert tied to their account.
	if userID, ok := optionalUserID(c); ok {
		in.UserID = &userID
	}

	alert, created, err := h.service.Subscribe(in)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrProductNotFound):
			utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
		case errors.Is(err, utils.ErrInvalidChannel):
			utils.Error(c, 400, "INVALID_CHANNEL", "notifyVia must be a subset of email, sms, push")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to subscribe")
		}
		return
	}

	if created {
		utils.Success(c, 201, "Subscribed to restock alert", alert)
		return
	}
	utils.Success(c, 200, "Already subscribed", alert)
}

// MyAlerts handles GET /v1/stock-alerts/my-alerts (authenticated).
func (h *StockAlertHandler) MyAlerts(c *gin.Context) {
	userID := middleware.GetUserID(c)

	alerts, err := h.service.ListForUser(userID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list alerts")
		return
	}

	utils.Success(c, 200, "Alerts retrieved successfully", gin.H{"alerts": alerts})
}

// Unsubscribe handles DELETE /v1/stock-alerts/:alertId (authenticated, owner-only).
func (h *StockAlertHandler) Unsubscribe(c *gin.Context) {
	alertID, err := strconv.ParseInt(c.Param("alertId"), 10, 64)
	if err != nil || alertID <= 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid alertId parameter")
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.service.Unsubscribe(alertID, userID); err != nil {
		switch {
		case errors.Is(err, utils.ErrAlertNotFound):
			utils.Error(c, 404, "ALERT_NOT_FOUND", "Alert not found")
		case errors.Is(err, utils.ErrAlertForbidden):
			utils.Error(c, 403, "FORBIDDEN", "Alert belongs to another account")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to unsubscribe")
		}
		return
	}

	utils.Success(c, 200, "Unsubscribed", nil)
}

// UnsubscribeByToken handles GET /v1/stock-alerts/unsubscribe/:token
// The token comes from restock emails; no account is required.
func (h *StockAlertHandler) UnsubscribeByToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing token")
		return
	}

	if err := h.service.UnsubscribeByToken(token); err != nil {
		if errors.Is(err, utils.ErrAlertNotFound) {
			utils.Error(c, 404, "ALERT_NOT_FOUND", "Unknown unsubscribe token")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to unsubscribe")
		return
	}

	utils.Success(c, 200, "Unsubscribed", nil)
}

// CheckSubscribed handles GET /v1/stock-alerts/check/:productId (authenticated).
func (h *StockAlertHandler) CheckSubscribed(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil || productID <= 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid productId parameter")
		return
	}

	userID := middleware.GetUserID(c)
	alert, subscribed, err := h.service.CheckSubscribed(userID, productID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to check subscription")
		return
	}

	utils.Success(c, 200, "Subscription status retrieved", gin.H{
		"isSubscribed": subscribed,
		"alert":        alert,
	})
}

// optionalUserID extracts the caller's user id from a Bearer token when one
// is present, without requiring authentication.
func optionalUserID(c *gin.Context) (int, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, false
	}
	claims, err := utils.ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}
