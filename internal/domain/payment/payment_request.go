package payment

import (
	"time"
)

// PlaceholderEmail ログイン前のフォールバックとして使われるダミーメールアドレス
// この値のまま決済を開始してはいけない
const PlaceholderEmail = "user@example.com"

// PaymentRequest 決済開始リクエストエンティティ
type PaymentRequest struct {
	amount          float64
	itemName        string
	itemDescription string
	buyerEmail      string
	buyerFirstName  string
	buyerLastName   string
	cellNumber      string
	listingID       string
	buyerID         string
	sellerID        string
	backendURL      string
	createdAt       time.Time
}

// NewPaymentRequest 新しいPaymentRequestエンティティを作成
func NewPaymentRequest(
	amount float64,
	itemName string,
	itemDescription string,
	buyerEmail string,
	buyerFirstName string,
	buyerLastName string,
	cellNumber string,
	listingID string,
	buyerID string,
	sellerID string,
	backendURL string,
) *PaymentRequest {
	if itemDescription == "" {
		itemDescription = itemName
	}
	return &PaymentRequest{
		amount:          amount,
		itemName:        itemName,
		itemDescription: itemDescription,
		buyerEmail:      buyerEmail,
		buyerFirstName:  buyerFirstName,
		buyerLastName:   buyerLastName,
		cellNumber:      cellNumber,
		listingID:       listingID,
		buyerID:         buyerID,
		sellerID:        sellerID,
		backendURL:      backendURL,
		createdAt:       time.Now(),
	}
}

// Amount 金額を返す
func (pr *PaymentRequest) Amount() float64 {
	return pr.amount
}

// ItemName 商品名を返す
func (pr *PaymentRequest) ItemName() string {
	return pr.itemName
}

// ItemDescription 商品説明を返す
func (pr *PaymentRequest) ItemDescription() string {
	return pr.itemDescription
}

// BuyerEmail 購入者メールアドレスを返す
func (pr *PaymentRequest) BuyerEmail() string {
	return pr.buyerEmail
}

// BuyerFirstName 購入者の名を返す
func (pr *PaymentRequest) BuyerFirstName() string {
	return pr.buyerFirstName
}

// BuyerLastName 購入者の姓を返す
func (pr *PaymentRequest) BuyerLastName() string {
	return pr.buyerLastName
}

// CellNumber 購入者の電話番号を返す
func (pr *PaymentRequest) CellNumber() string {
	return pr.cellNumber
}

// ListingID 出品IDを返す
func (pr *PaymentRequest) ListingID() string {
	return pr.listingID
}

// BuyerID 購入者IDを返す
func (pr *PaymentRequest) BuyerID() string {
	return pr.buyerID
}

// SellerID 販売者IDを返す
func (pr *PaymentRequest) SellerID() string {
	return pr.sellerID
}

// BackendURL リターンURL構築用のバックエンドURLを返す
func (pr *PaymentRequest) BackendURL() string {
	return pr.backendURL
}

// CreatedAt 作成日時を返す
func (pr *PaymentRequest) CreatedAt() time.Time {
	return pr.createdAt
}

// Validate 必須項目を検証する（ネットワーク呼び出し前に失敗させる）
func (pr *PaymentRequest) Validate() error {
	if pr.amount <= 0 {
		return ErrInvalidAmount
	}
	if pr.buyerID == "" {
		return ErrMissingBuyerID
	}
	if pr.sellerID == "" {
		return ErrMissingSellerID
	}
	if pr.listingID == "" {
		return ErrMissingListingID
	}
	if pr.buyerEmail == "" {
		return ErrMissingEmail
	}
	if pr.buyerEmail == PlaceholderEmail {
		return ErrPlaceholderEmail
	}
	return nil
}

// MissingFields 欠落している必須ID項目の名前を返す
func (pr *PaymentRequest) MissingFields() []string {
	var missing []string
	if pr.buyerID == "" {
		missing = append(missing, "buyerId")
	}
	if pr.sellerID == "" {
		missing = append(missing, "sellerId")
	}
	if pr.listingID == "" {
		missing = append(missing, "listingId")
	}
	return missing
}
