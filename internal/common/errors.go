// Package common defines shared constants and sentinel errors used across
// the filedrop services and the HTTP gateway. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrStoreWrite    = errors.New("store write failed")

	// Upload errors.
	ErrReadFailure  = errors.New("failed to read source file")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

	// Ledger errors.
	ErrInsufficientBalance = errors.New("not enough coins")
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrUserNotFound        = errors.New("user not found")

	// Account errors.
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountLimit       = errors.New("account limit reached for this address")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Checkout errors.
	ErrCheckoutInitiation = errors.New("failed to initiate checkout")
	ErrPaymentProcessing  = errors.New("failed to process payment")
)
