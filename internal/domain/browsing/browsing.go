package browsing

import (
	"context"
)

// ResultType 外部ブラウザセッションの終端結果種別
type ResultType string

const (
	ResultTypeSuccess ResultType = "success" // リターンスキームに一致したリダイレクトを捕捉
	ResultTypeCancel  ResultType = "cancel"  // ユーザーが明示的に閉じた
	ResultTypeDismiss ResultType = "dismiss" // リダイレクト捕捉なしで閉じられた（曖昧）
	ResultTypeUnknown ResultType = "unknown" // 未知の結果形状
)

// String 文字列表現を返す
func (rt ResultType) String() string {
	return string(rt)
}

// Result 外部ブラウザセッションの結果
// cancel/dismissは真のキャンセルとも決済成功後の取りこぼしとも区別できないため、
// この結果は常に参考情報として扱い、確定できないものはReconcilerに委ねる
type Result struct {
	resultType ResultType
	url        string
}

// NewSuccessResult リダイレクト捕捉の結果を作成
func NewSuccessResult(url string) Result {
	return Result{resultType: ResultTypeSuccess, url: url}
}

// NewCancelResult キャンセルの結果を作成
func NewCancelResult() Result {
	return Result{resultType: ResultTypeCancel}
}

// NewDismissResult 閉じられた結果を作成
func NewDismissResult() Result {
	return Result{resultType: ResultTypeDismiss}
}

// NewUnknownResult 未知の結果を作成
func NewUnknownResult() Result {
	return Result{resultType: ResultTypeUnknown}
}

// Type 結果種別を返す
func (r Result) Type() ResultType {
	return r.resultType
}

// URL 捕捉したランディングURLを返す（success時のみ）
func (r Result) URL() string {
	return r.url
}

// IsDefinitive 結果がURL付きで確定しているかどうかを返す
func (r Result) IsDefinitive() bool {
	return r.resultType == ResultTypeSuccess && r.url != ""
}

// Opener 外部の認証付きブラウザセッションを開くインターフェース
// ホスト型決済ページのCookieやセッション状態を保持したままOSに制御を渡し、
// 設定されたリターンスキームへのリダイレクトを捕捉する
type Opener interface {
	Open(ctx context.Context, paymentURL string, returnScheme string) (Result, error)
}

// URLSource OSから配信されるコールバックURLの購読インターフェース
// 返されたチャネルは解除関数の呼び出しでクローズされる
type URLSource interface {
	Subscribe(buffer int) (<-chan string, func())
}
