package payment

import (
	"fmt"
)

// PaymentStatus バックエンドのステータスエンドポイントが返す決済ステータスを表す値オブジェクト
type PaymentStatus string

const (
	PaymentStatusComplete PaymentStatus = "complete" // 完了
	PaymentStatusFailed   PaymentStatus = "failed"   // 失敗
	PaymentStatusPending  PaymentStatus = "pending"  // 処理中
)

// NewPaymentStatus 新しいPaymentStatusを作成
func NewPaymentStatus(s string) (PaymentStatus, error) {
	switch s {
	case "complete", "failed", "pending":
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
}

// String 文字列表現を返す
func (ps PaymentStatus) String() string {
	return string(ps)
}

// Valid 有効な決済ステータスかどうかを返す
func (ps PaymentStatus) Valid() bool {
	switch ps {
	case PaymentStatusComplete, PaymentStatusFailed, PaymentStatusPending:
		return true
	default:
		return false
	}
}

// IsComplete 完了状態かどうかを返す
func (ps PaymentStatus) IsComplete() bool {
	return ps == PaymentStatusComplete
}

// IsFailed 失敗状態かどうかを返す
func (ps PaymentStatus) IsFailed() bool {
	return ps == PaymentStatusFailed
}

// IsPending 処理中状態かどうかを返す
func (ps PaymentStatus) IsPending() bool {
	return ps == PaymentStatusPending
}
