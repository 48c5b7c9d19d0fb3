package payment

import "errors"

var (
	// ErrInvalidAmount 金額が不正なエラー
	ErrInvalidAmount = errors.New("amount must be a positive value")
	// ErrMissingBuyerID 購入者IDが欠落しているエラー
	ErrMissingBuyerID = errors.New("buyer id is required")
	// ErrMissingSellerID 販売者IDが欠落しているエラー
	ErrMissingSellerID = errors.New("seller id is required")
	// ErrMissingListingID 出品IDが欠落しているエラー
	ErrMissingListingID = errors.New("listing id is required")
	// ErrMissingEmail メールアドレスが欠落しているエラー
	ErrMissingEmail = errors.New("buyer email is required")
	// ErrPlaceholderEmail メールアドレスがプレースホルダーのままのエラー
	ErrPlaceholderEmail = errors.New("buyer email is a placeholder value")
	// ErrPaymentNotRecorded 決済がまだステータスストアに記録されていないエラー（ITN未着）
	ErrPaymentNotRecorded = errors.New("payment not yet recorded")
)

// IsValidationError 決済開始前のバリデーションエラーかどうかを返す
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingBuyerID) ||
		errors.Is(err, ErrMissingSellerID) ||
		errors.Is(err, ErrMissingListingID) ||
		errors.Is(err, ErrMissingEmail) ||
		errors.Is(err, ErrPlaceholderEmail)
}
