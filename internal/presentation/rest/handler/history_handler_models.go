package handler

// CheckoutSessionItem 決済セッションアイテム
// @Description 決済セッションアイテム
type CheckoutSessionItem struct {
	PaymentID string  `json:"payment_id" example:"pf_1234567890"`
	ListingID string  `json:"listing_id" example:"listing123"`
	SellerID  string  `json:"seller_id" example:"seller123"`
	Amount    float64 `json:"amount" example:"150.00"`
	ItemName  string  `json:"item_name" example:"Charizard Holo 1st Edition"`
	Status    string  `json:"status" example:"completed"`
	CreatedAt string  `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt string  `json:"updated_at" example:"2024-01-01T12:05:00Z"`
}

// CheckoutHistoryResponse 決済履歴レスポンス
// @Description 決済履歴レスポンス
type CheckoutHistoryResponse struct {
	Sessions []CheckoutSessionItem `json:"sessions"`
	Limit    int                   `json:"limit" example:"20"`
	Offset   int                   `json:"offset" example:"0"`
}
