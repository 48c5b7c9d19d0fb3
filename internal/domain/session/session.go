package session

import (
	"time"
)

// SessionStatus PaymentSessionのステータス
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // 外部ブラウザでの決済待ち
	SessionStatusCompleted SessionStatus = "completed" // 成功として解決済み
	SessionStatusCancelled SessionStatus = "cancelled" // キャンセルとして解決済み
	SessionStatusFailed    SessionStatus = "failed"    // エラーとして解決済み
)

// String 文字列表現を返す
func (ss SessionStatus) String() string {
	return string(ss)
}

// Valid 有効なセッションステータスかどうかを返す
func (ss SessionStatus) Valid() bool {
	switch ss {
	case SessionStatusPending, SessionStatusCompleted, SessionStatusCancelled, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// PaymentSession バックエンドが受理した決済セッションエンティティ
// paymentIDは以後の照合処理すべてで使われる永続的なハンドルで、
// UIコンポーネントのライフサイクルより長生きする必要がある
type PaymentSession struct {
	paymentID       string
	paymentURL      string
	buyerID         string
	sellerID        string
	listingID       string
	amount          float64
	itemName        string
	itemDescription string
	status          SessionStatus
	createdAt       time.Time
	updatedAt       time.Time
}

// NewPaymentSession 新しいPaymentSessionエンティティを作成
func NewPaymentSession(
	paymentID string,
	paymentURL string,
	buyerID string,
	sellerID string,
	listingID string,
	amount float64,
	itemName string,
	itemDescription string,
) *PaymentSession {
	now := time.Now()
	return &PaymentSession{
		paymentID:       paymentID,
		paymentURL:      paymentURL,
		buyerID:         buyerID,
		sellerID:        sellerID,
		listingID:       listingID,
		amount:          amount,
		itemName:        itemName,
		itemDescription: itemDescription,
		status:          SessionStatusPending,
		createdAt:       now,
		updatedAt:       now,
	}
}

// ReconstructPaymentSession 永続化層からPaymentSessionエンティティを復元
func ReconstructPaymentSession(
	paymentID string,
	paymentURL string,
	buyerID string,
	sellerID string,
	listingID string,
	amount float64,
	itemName string,
	itemDescription string,
	status SessionStatus,
	createdAt time.Time,
	updatedAt time.Time,
) *PaymentSession {
	return &PaymentSession{
		paymentID:       paymentID,
		paymentURL:      paymentURL,
		buyerID:         buyerID,
		sellerID:        sellerID,
		listingID:       listingID,
		amount:          amount,
		itemName:        itemName,
		itemDescription: itemDescription,
		status:          status,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// PaymentID 決済IDを返す
func (s *PaymentSession) PaymentID() string {
	return s.paymentID
}

// PaymentURL ホスト型決済ページのURLを返す
func (s *PaymentSession) PaymentURL() string {
	return s.paymentURL
}

// BuyerID 購入者IDを返す
func (s *PaymentSession) BuyerID() string {
	return s.buyerID
}

// SellerID 販売者IDを返す
func (s *PaymentSession) SellerID() string {
	return s.sellerID
}

// ListingID 出品IDを返す
func (s *PaymentSession) ListingID() string {
	return s.listingID
}

// Amount 金額を返す
func (s *PaymentSession) Amount() float64 {
	return s.amount
}

// ItemName 商品名を返す
func (s *PaymentSession) ItemName() string {
	return s.itemName
}

// ItemDescription 商品説明を返す
func (s *PaymentSession) ItemDescription() string {
	return s.itemDescription
}

// Status ステータスを返す
func (s *PaymentSession) Status() SessionStatus {
	return s.status
}

// CreatedAt 作成日時を返す
func (s *PaymentSession) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt 更新日時を返す
func (s *PaymentSession) UpdatedAt() time.Time {
	return s.updatedAt
}

// Complete セッションを成功状態にする
func (s *PaymentSession) Complete() {
	s.status = SessionStatusCompleted
	s.updatedAt = time.Now()
}

// Cancel セッションをキャンセル状態にする
func (s *PaymentSession) Cancel() {
	s.status = SessionStatusCancelled
	s.updatedAt = time.Now()
}

// Fail セッションを失敗状態にする
func (s *PaymentSession) Fail() {
	s.status = SessionStatusFailed
	s.updatedAt = time.Now()
}

// IsPending 処理中状態かどうかを返す
func (s *PaymentSession) IsPending() bool {
	return s.status == SessionStatusPending
}

// IsResolved 終端状態かどうかを返す
func (s *PaymentSession) IsResolved() bool {
	return s.status != SessionStatusPending
}
