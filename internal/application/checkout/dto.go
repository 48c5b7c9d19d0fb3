package checkout

// StartCheckoutRequest 決済フロー開始リクエスト
type StartCheckoutRequest struct {
	Amount          float64
	ItemName        string
	ItemDescription string
	BuyerEmail      string
	BuyerFirstName  string
	BuyerLastName   string
	CellNumber      string
	ListingID       string
	BuyerID         string
	SellerID        string
}

// PaymentData 成功コールバックに渡す決済データ
type PaymentData struct {
	PaymentID string
	Amount    float64
	ItemName  string
}

// Callbacks 呼び出し側へ結果を届けるコールバック群
// 1回の決済試行につき、どれか一つが一度だけ呼ばれる
type Callbacks struct {
	OnSuccess func(data PaymentData)
	OnCancel  func()
	OnError   func(message string)
}
