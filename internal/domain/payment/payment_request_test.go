package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newValidRequest() *PaymentRequest {
	return NewPaymentRequest(
		150.00,
		"Charizard Holo 1st Edition",
		"Near mint condition",
		"buyer@example.org",
		"Taro",
		"Yamada",
		"0801234567",
		"listing123",
		"buyer123",
		"seller123",
		"https://api.example.org",
	)
}

func TestNewPaymentRequest(t *testing.T) {
	tests := []struct {
		name            string
		itemName        string
		itemDescription string
		wantDescription string
	}{
		{
			name:            "正常系: 説明付きのリクエスト作成",
			itemName:        "Pikachu Promo",
			itemDescription: "Sealed pack",
			wantDescription: "Sealed pack",
		},
		{
			name:            "正常系: 説明が空の場合は商品名を補完する",
			itemName:        "Pikachu Promo",
			itemDescription: "",
			wantDescription: "Pikachu Promo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPaymentRequest(
				100,
				tt.itemName,
				tt.itemDescription,
				"buyer@example.org",
				"Taro",
				"Yamada",
				"",
				"listing123",
				"buyer123",
				"seller123",
				"https://api.example.org",
			)
			assert.Equal(t, tt.itemName, got.ItemName())
			assert.Equal(t, tt.wantDescription, got.ItemDescription())
			assert.False(t, got.CreatedAt().IsZero())
		})
	}
}

func TestPaymentRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *rawRequest)
		wantError error
	}{
		{
			name:      "正常系: すべての必須項目が揃っている",
			mutate:    func(r *rawRequest) {},
			wantError: nil,
		},
		{
			name:      "異常系: 金額がゼロ",
			mutate:    func(r *rawRequest) { r.amount = 0 },
			wantError: ErrInvalidAmount,
		},
		{
			name:      "異常系: 金額が負",
			mutate:    func(r *rawRequest) { r.amount = -50 },
			wantError: ErrInvalidAmount,
		},
		{
			name:      "異常系: 購入者IDが欠落",
			mutate:    func(r *rawRequest) { r.buyerID = "" },
			wantError: ErrMissingBuyerID,
		},
		{
			name:      "異常系: 販売者IDが欠落",
			mutate:    func(r *rawRequest) { r.sellerID = "" },
			wantError: ErrMissingSellerID,
		},
		{
			name:      "異常系: 出品IDが欠落",
			mutate:    func(r *rawRequest) { r.listingID = "" },
			wantError: ErrMissingListingID,
		},
		{
			name:      "異常系: メールアドレスが欠落",
			mutate:    func(r *rawRequest) { r.email = "" },
			wantError: ErrMissingEmail,
		},
		{
			name:      "異常系: メールアドレスがプレースホルダーのまま",
			mutate:    func(r *rawRequest) { r.email = PlaceholderEmail },
			wantError: ErrPlaceholderEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &rawRequest{
				amount:    150.00,
				email:     "buyer@example.org",
				listingID: "listing123",
				buyerID:   "buyer123",
				sellerID:  "seller123",
			}
			tt.mutate(raw)

			req := NewPaymentRequest(
				raw.amount,
				"Charizard Holo 1st Edition",
				"",
				raw.email,
				"Taro",
				"Yamada",
				"",
				raw.listingID,
				raw.buyerID,
				raw.sellerID,
				"https://api.example.org",
			)

			err := req.Validate()
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// rawRequest テスト用の必須項目セット
type rawRequest struct {
	amount    float64
	email     string
	listingID string
	buyerID   string
	sellerID  string
}

func TestPaymentRequest_MissingFields(t *testing.T) {
	tests := []struct {
		name      string
		buyerID   string
		sellerID  string
		listingID string
		want      []string
	}{
		{
			name:      "正常系: 欠落なし",
			buyerID:   "buyer123",
			sellerID:  "seller123",
			listingID: "listing123",
			want:      nil,
		},
		{
			name:      "正常系: 購入者IDのみ欠落",
			buyerID:   "",
			sellerID:  "seller123",
			listingID: "listing123",
			want:      []string{"buyerId"},
		},
		{
			name:      "正常系: すべて欠落",
			buyerID:   "",
			sellerID:  "",
			listingID: "",
			want:      []string{"buyerId", "sellerId", "listingId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewPaymentRequest(
				100,
				"item",
				"",
				"buyer@example.org",
				"",
				"",
				"",
				tt.listingID,
				tt.buyerID,
				tt.sellerID,
				"https://api.example.org",
			)
			assert.Equal(t, tt.want, req.MissingFields())
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrInvalidAmount))
	assert.True(t, IsValidationError(ErrPlaceholderEmail))
	assert.False(t, IsValidationError(ErrPaymentNotRecorded))
	assert.False(t, IsValidationError(nil))
}
