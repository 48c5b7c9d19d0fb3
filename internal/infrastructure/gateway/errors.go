package gateway

import "errors"

var (
	// ErrCreatePaymentFailed 決済作成呼び出しが失敗したエラー
	ErrCreatePaymentFailed = errors.New("failed to create payment")
	// ErrInvalidPaymentResponse 決済作成レスポンスが不正なエラー
	ErrInvalidPaymentResponse = errors.New("invalid payment response")
)
