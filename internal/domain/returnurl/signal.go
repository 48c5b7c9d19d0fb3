package returnurl

import (
	"net/url"
	"strings"
)

// SignalKind リターンURLから読み取れる結果種別
type SignalKind string

const (
	SignalSuccess SignalKind = "success" // 成功マーカーに一致
	SignalCancel  SignalKind = "cancel"  // キャンセルマーカーに一致
	SignalNone    SignalKind = "none"    // どのマーカーにも一致しない
)

// String 文字列表現を返す
func (sk SignalKind) String() string {
	return string(sk)
}

// Signal リターンURLの解析結果
// 認識される文法（許可リスト）:
//   - パスに payment/success を含む（saplayer://payment/success のスキーム形式も同様）
//   - クエリに status=success を含む（payment/return?status=success もこれに含まれる）
//   - キャンセルは success を cancel に置き換えた対称形
//
// クエリのm_payment_idは存在すれば抽出され、以後の照合で他の識別子より優先される
type Signal struct {
	kind      SignalKind
	paymentID string
}

// Kind 結果種別を返す
func (s Signal) Kind() SignalKind {
	return s.kind
}

// PaymentID URLから抽出された決済IDを返す（なければ空文字列）
func (s Signal) PaymentID() string {
	return s.paymentID
}

// IsSuccess 成功シグナルかどうかを返す
func (s Signal) IsSuccess() bool {
	return s.kind == SignalSuccess
}

// IsCancel キャンセルシグナルかどうかを返す
func (s Signal) IsCancel() bool {
	return s.kind == SignalCancel
}

// IsNone マーカー不一致かどうかを返す
func (s Signal) IsNone() bool {
	return s.kind == SignalNone
}

// Parse リターンURLを構造的に解析してSignalを返す
// 単純な部分文字列一致だと商品名に "success" が含まれるだけで誤検知するため、
// URLとして解析した上でパスセグメントとクエリのみを見る
func Parse(raw string) Signal {
	u, err := url.Parse(raw)
	if err != nil {
		return Signal{kind: SignalNone}
	}

	query := u.Query()
	paymentID := query.Get("m_payment_id")

	// 成功カテゴリを先に判定する（最初に一致したカテゴリが勝つ）
	if query.Get("status") == "success" || hasPaymentSegment(u, "success") {
		return Signal{kind: SignalSuccess, paymentID: paymentID}
	}
	if query.Get("status") == "cancel" || hasPaymentSegment(u, "cancel") {
		return Signal{kind: SignalCancel, paymentID: paymentID}
	}

	return Signal{kind: SignalNone, paymentID: paymentID}
}

// hasPaymentSegment パスに payment/<marker> の連続セグメントが含まれるかを返す
// カスタムスキーム（saplayer://payment/success）ではホスト部が先頭セグメントになるため、
// http/https以外はホスト部もパスに含めて判定する
func hasPaymentSegment(u *url.URL, marker string) bool {
	path := u.Path
	if u.Scheme != "http" && u.Scheme != "https" {
		path = u.Host + "/" + strings.TrimPrefix(u.Path, "/")
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "payment" && segments[i+1] == marker {
			return true
		}
	}
	return false
}
