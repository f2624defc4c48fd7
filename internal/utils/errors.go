package utils

import "errors"

// Common application errors used across services.
var (
	ErrProductNotFound = errors.New("PRODUCT_NOT_FOUND")
	ErrAlertNotFound   = errors.New("ALERT_NOT_FOUND")
	ErrAlertForbidden  = errors.New("ALERT_FORBIDDEN")
	ErrEmailTaken      = errors.New("EMAIL_TAKEN")
	ErrSlugTaken       = errors.New("SLUG_TAKEN")
	ErrInvalidChannel  = errors.New("INVALID_CHANNEL")
	ErrInvalidToken    = errors.New("INVALID_TOKEN")
	ErrAccountInactive = errors.New("ACCOUNT_INACTIVE")
	ErrBadCredentials  = errors.New("INVALID_CREDENTIALS")
)
