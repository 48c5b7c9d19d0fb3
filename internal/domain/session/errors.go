package session

import "errors"

var (
	// ErrSessionNotFound PaymentSessionが見つからないエラー
	ErrSessionNotFound = errors.New("payment session not found")
	// ErrNoPaymentID 照合に使える決済IDが存在しないエラー
	ErrNoPaymentID = errors.New("no payment id available for reconciliation")
)
