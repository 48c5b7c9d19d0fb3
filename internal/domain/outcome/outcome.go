package outcome

import (
	"fmt"
)

// OutcomeKind 決済試行の終端結果の種別を表す値オブジェクト
type OutcomeKind string

const (
	OutcomeKindSuccess   OutcomeKind = "success"   // 成功
	OutcomeKindCancelled OutcomeKind = "cancelled" // キャンセル（曖昧な終了もここに縮退する）
	OutcomeKindError     OutcomeKind = "error"     // エラー
)

// NewOutcomeKind 新しいOutcomeKindを作成
func NewOutcomeKind(s string) (OutcomeKind, error) {
	switch s {
	case "success", "cancelled", "error":
		return OutcomeKind(s), nil
	default:
		return "", fmt.Errorf("invalid outcome kind: %s", s)
	}
}

// String 文字列表現を返す
func (ok OutcomeKind) String() string {
	return string(ok)
}

// Valid 有効な種別かどうかを返す
func (ok OutcomeKind) Valid() bool {
	switch ok {
	case OutcomeKindSuccess, OutcomeKindCancelled, OutcomeKindError:
		return true
	default:
		return false
	}
}

// Outcome 決済試行ごとに一度だけ配信される終端結果
type Outcome struct {
	kind      OutcomeKind
	paymentID string
	amount    float64
	itemName  string
	message   string
}

// NewSuccess 成功のOutcomeを作成
func NewSuccess(paymentID string, amount float64, itemName string) Outcome {
	return Outcome{
		kind:      OutcomeKindSuccess,
		paymentID: paymentID,
		amount:    amount,
		itemName:  itemName,
	}
}

// NewCancelled キャンセルのOutcomeを作成
func NewCancelled() Outcome {
	return Outcome{kind: OutcomeKindCancelled}
}

// NewError エラーのOutcomeを作成
func NewError(message string) Outcome {
	return Outcome{
		kind:    OutcomeKindError,
		message: message,
	}
}

// Kind 種別を返す
func (o Outcome) Kind() OutcomeKind {
	return o.kind
}

// PaymentID 解決された決済IDを返す（成功時のみ）
func (o Outcome) PaymentID() string {
	return o.paymentID
}

// Amount 金額を返す（成功時のみ）
func (o Outcome) Amount() float64 {
	return o.amount
}

// ItemName 商品名を返す（成功時のみ）
func (o Outcome) ItemName() string {
	return o.itemName
}

// Message エラーメッセージを返す（エラー時のみ）
func (o Outcome) Message() string {
	return o.message
}

// IsSuccess 成功かどうかを返す
func (o Outcome) IsSuccess() bool {
	return o.kind == OutcomeKindSuccess
}

// IsCancelled キャンセルかどうかを返す
func (o Outcome) IsCancelled() bool {
	return o.kind == OutcomeKindCancelled
}

// IsError エラーかどうかを返す
func (o Outcome) IsError() bool {
	return o.kind == OutcomeKindError
}
