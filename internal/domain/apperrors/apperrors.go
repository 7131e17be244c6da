// Package apperrors implements the tagged-variant application error used
// across every layer of the ledger core. A single boundary handler
// (internal/adapters/http/common) maps an *AppError to the wire error payload.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeValidation               Code = "VALIDATION_ERROR"
	CodeIdempotencyKeyMissing    Code = "IDEMPOTENCY_KEY_MISSING"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeAssetTypeNotFound        Code = "ASSET_TYPE_NOT_FOUND"
	CodeUserWalletNotFound       Code = "USER_WALLET_NOT_FOUND"
	CodeAssetWalletNotFound      Code = "ASSET_WALLET_NOT_FOUND"
	CodeIdempotencyKeyReused     Code = "IDEMPOTENCY_KEY_REUSED_WITH_DIFFERENT_REQUEST"
	CodeRequestInProgress        Code = "REQUEST_ALREADY_IN_PROGRESS"
	CodeIdempotencyStateNotFound Code = "IDEMPOTENCY_STATE_NOT_FOUND"
	CodeInsufficientFunds        Code = "INSUFFICIENT_FUNDS"
	CodeOptimisticLockConflict   Code = "OPTIMISTIC_LOCK_CONFLICT"
	CodeLockedWalletMismatch     Code = "LOCKED_WALLET_MISMATCH"
	CodeDistributedLockNotFound  Code = "DISTRIBUTED_LOCK_NOT_ACQUIRED"
	CodeLockKeysMissing          Code = "LOCK_KEYS_MISSING"
	CodeTreasuryNotConfigured    Code = "TREASURY_WALLET_NOT_CONFIGURED"
	CodeIdempotencyCtxMissing    Code = "IDEMPOTENCY_CONTEXT_MISSING"
	CodeInternal                 Code = "INTERNAL_SERVER_ERROR"
	CodeRouteNotFound            Code = "ROUTE_NOT_FOUND"
)

// AppError is the sum type every layer raises instead of ad-hoc errors.
// HTTPStatus travels with the error so the boundary handler never has to
// re-derive it from Code.
type AppError struct {
	Code       Code
	HTTPStatus int
	Message    string
	Details    map[string]interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func newErr(code Code, httpStatus int, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: httpStatus, Message: message}
}

func (e *AppError) withDetails(d map[string]interface{}) *AppError {
	e.Details = d
	return e
}

func (e *AppError) withErr(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newErr(CodeValidation, 400, message)
}

func NewIdempotencyKeyMissing() *AppError {
	return newErr(CodeIdempotencyKeyMissing, 400, "Idempotency-Key header is required")
}

func NewUserNotFound(userID string) *AppError {
	return newErr(CodeUserNotFound, 404, "user not found").withDetails(map[string]interface{}{"userId": userID})
}

func NewAssetTypeNotFound(assetCode string) *AppError {
	return newErr(CodeAssetTypeNotFound, 404, "asset type not found").withDetails(map[string]interface{}{"assetCode": assetCode})
}

func NewUserWalletNotFound(userID, assetCode string) *AppError {
	return newErr(CodeUserWalletNotFound, 404, "user has no wallet for this asset").
		withDetails(map[string]interface{}{"userId": userID, "assetCode": assetCode})
}

func NewAssetWalletNotFound(assetCode string) *AppError {
	return newErr(CodeAssetWalletNotFound, 404, "no wallet balance for this asset").
		withDetails(map[string]interface{}{"assetCode": assetCode})
}

func NewIdempotencyKeyReused() *AppError {
	return newErr(CodeIdempotencyKeyReused, 409, "idempotency key was already used with a different request")
}

func NewRequestInProgress() *AppError {
	return newErr(CodeRequestInProgress, 409, "a request with this idempotency key is already in progress")
}

func NewIdempotencyStateNotFound() *AppError {
	return newErr(CodeIdempotencyStateNotFound, 500, "idempotency record vanished between insert and lookup")
}

func NewInsufficientFunds(assetCode string, available, requested int64) *AppError {
	return newErr(CodeInsufficientFunds, 409, "insufficient funds").withDetails(map[string]interface{}{
		"assetCode": assetCode,
		"available": available,
		"requested": requested,
	})
}

func NewOptimisticLockConflict(walletID string) *AppError {
	return newErr(CodeOptimisticLockConflict, 409, "wallet was modified concurrently, retry").
		withDetails(map[string]interface{}{"walletId": walletID})
}

func NewLockedWalletMismatch() *AppError {
	return newErr(CodeLockedWalletMismatch, 409, "row-lock returned an unexpected set of wallets")
}

func NewDistributedLockNotAcquired() *AppError {
	return newErr(CodeDistributedLockNotFound, 423, "could not acquire wallet lock, retry later")
}

func NewLockKeysMissing() *AppError {
	return newErr(CodeLockKeysMissing, 400, "no wallet ids supplied to lock")
}

func NewTreasuryNotConfigured(assetCode string) *AppError {
	return newErr(CodeTreasuryNotConfigured, 500, "treasury wallet missing for asset").
		withDetails(map[string]interface{}{"assetCode": assetCode})
}

func NewIdempotencyContextMissing() *AppError {
	return newErr(CodeIdempotencyCtxMissing, 500, "idempotency key or fingerprint missing from request context")
}

func NewInternal(err error) *AppError {
	return newErr(CodeInternal, 500, "an unexpected error occurred").withErr(err)
}

func NewRouteNotFound() *AppError {
	return newErr(CodeRouteNotFound, 404, "route not found")
}
