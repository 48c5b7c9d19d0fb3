package history

import (
	"time"

	"saplayer-checkout/internal/domain/session"
)

// GetCheckoutHistoryQuery 決済履歴取得クエリ
type GetCheckoutHistoryQuery struct {
	BuyerID string
	Status  string // 空文字列の場合は全ステータス
	Limit   int
	Offset  int
}

// CheckoutHistoryEntry 決済履歴の1件
type CheckoutHistoryEntry struct {
	PaymentID string    `json:"paymentId"`
	ListingID string    `json:"listingId"`
	SellerID  string    `json:"sellerId"`
	Amount    float64   `json:"amount"`
	ItemName  string    `json:"itemName"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CheckoutHistoryResult 決済履歴取得結果
type CheckoutHistoryResult struct {
	Entries []CheckoutHistoryEntry `json:"entries"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// newHistoryEntry PaymentSessionエンティティから履歴DTOを構築する
func newHistoryEntry(s *session.PaymentSession) CheckoutHistoryEntry {
	return CheckoutHistoryEntry{
		PaymentID: s.PaymentID(),
		ListingID: s.ListingID(),
		SellerID:  s.SellerID(),
		Amount:    s.Amount(),
		ItemName:  s.ItemName(),
		Status:    s.Status().String(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}
