package models

import "fmt"

// Error codes returned synchronously to the requesting connection.
const (
	CodeValidation          = "VALIDATION"
	CodeRateLimit           = "RATE_LIMIT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNotFound            = "NOT_FOUND"
	CodeFeatureDisabled     = "FEATURE_DISABLED"
	CodeInternal            = "INTERNAL"
)

// AppError carries a wire error code alongside the message. Required and
// Balance are only set for INSUFFICIENT_BALANCE.
type AppError struct {
	Code     string
	Message  string
	Required int
	Balance  int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError builds an AppError with the given code and message.
func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewInsufficientBalance reports a failed charge of required tokens against
// the viewer's current balance.
func NewInsufficientBalance(required, balance int) *AppError {
	return &AppError{
		Code:     CodeInsufficientBalance,
		Message:  "not enough tokens",
		Required: required,
		Balance:  balance,
	}
}
