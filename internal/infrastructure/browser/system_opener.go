package browser

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"saplayer-checkout/internal/domain/browsing"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// SystemOpener OSのデフォルトブラウザでホスト型決済ページを開くOpener
// ブラウザはOS側のセッション状態（Cookie等）をそのまま使うため、
// ホスト型決済ページのログイン状態が保持される。
// リダイレクトの捕捉はコールバックURLバスの購読で代替する
type SystemOpener struct {
	source  browsing.URLSource
	timeout time.Duration
	logger  *otelinfra.Logger

	// launch テストで差し替えるための起動フック
	launch func(url string) error
}

// NewSystemOpener 新しいSystemOpenerを作成
func NewSystemOpener(source browsing.URLSource, timeout time.Duration, logger *otelinfra.Logger) *SystemOpener {
	return &SystemOpener{
		source:  source,
		timeout: timeout,
		logger:  logger,
		launch:  launchBrowser,
	}
}

// Open 決済ページを外部ブラウザで開き、終端結果を待つ
// リターンスキームに一致するコールバックURLが届けばsuccess、
// 待機上限まで何も届かなければdismiss（曖昧な終了）として返す
func (o *SystemOpener) Open(ctx context.Context, paymentURL string, returnScheme string) (browsing.Result, error) {
	// 起動前に購読を開始する。起動直後のコールバックを取りこぼさないため
	ch, cancel := o.source.Subscribe(4)
	defer cancel()

	if err := o.launch(paymentURL); err != nil {
		return browsing.Result{}, fmt.Errorf("failed to open browser: %w", err)
	}

	o.logger.Info(ctx, "Opened hosted payment page in external browser", map[string]interface{}{
		"return_scheme": returnScheme,
	})

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	for {
		select {
		case raw, ok := <-ch:
			if !ok {
				return browsing.NewDismissResult(), nil
			}
			if matchesReturn(raw, returnScheme) {
				return browsing.NewSuccessResult(raw), nil
			}
			// リターンスキーム外のURLは無視して待機を続ける
		case <-ctx.Done():
			return browsing.NewCancelResult(), nil
		case <-timer.C:
			o.logger.Warn(ctx, "Browser session timed out without captured redirect", nil)
			return browsing.NewDismissResult(), nil
		}
	}
}

// matchesReturn コールバックURLがこの決済フローの戻りとみなせるかを返す
func matchesReturn(raw string, returnScheme string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == returnScheme {
		return true
	}
	// ループバックリスナー経由のHTTPリターンURL
	return strings.Contains(u.Path, "/payment/")
}

// launchBrowser プラットフォームごとの方法でURLをデフォルトブラウザで開く
func launchBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
