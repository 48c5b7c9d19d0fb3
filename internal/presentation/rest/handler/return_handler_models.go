package handler

// returnPageHTML リターンURL受信後にブラウザへ表示する簡易ページ
// ユーザーはこの時点でアプリ側の結果表示に戻ればよい
const returnPageHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>SA Player</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
<h2>%s</h2>
<p>You can close this window and return to the app.</p>
</body>
</html>`

// ReturnAckResponse リターンURL受信の確認レスポンス（JSON要求時）
type ReturnAckResponse struct {
	Received  bool   `json:"received"`
	PaymentID string `json:"paymentId,omitempty"`
}
