package session

import (
	"context"
)

// SessionRepository PaymentSessionリポジトリインターフェース
type SessionRepository interface {
	// Save PaymentSessionを保存
	Save(ctx context.Context, session *PaymentSession) error

	// FindByPaymentID 決済IDでPaymentSessionを取得
	FindByPaymentID(ctx context.Context, paymentID string) (*PaymentSession, error)

	// Update PaymentSessionを更新
	Update(ctx context.Context, session *PaymentSession) error

	// FindByBuyerID 購入者IDでPaymentSessionを新しい順に取得
	FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*PaymentSession, error)
}
