package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"saplayer-checkout/internal/domain/returnurl"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// URLPublisher 受信したリターンURLをプロセス内に配送するインターフェース
type URLPublisher interface {
	Publish(url string)
}

// ReturnHandler ホスト型決済ページからのリターンURLを受けるハンドラー
// 受信したURLをそのままコールバックURLバスに流し、解釈はReconcilerに委ねる
type ReturnHandler struct {
	publisher URLPublisher
	logger    *otelinfra.Logger
}

// NewReturnHandler 新しいReturnHandlerを作成
func NewReturnHandler(publisher URLPublisher, logger *otelinfra.Logger) *ReturnHandler {
	return &ReturnHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// HandleSuccess 決済成功リターンハンドラー
// @Summary 決済成功リターンURLを受信
// @Description ホスト型決済ページからの成功リダイレクトを受け取り、照合フローへ配送します
// @Tags payment
// @Produce html
// @Param m_payment_id query string false "決済ID"
// @Success 200 {string} string "受信確認ページ"
// @Router /payment/success [get]
func (h *ReturnHandler) HandleSuccess(c echo.Context) error {
	return h.handleReturn(c, "Payment complete")
}

// HandleCancel 決済キャンセルリターンハンドラー
// @Summary 決済キャンセルリターンURLを受信
// @Description ホスト型決済ページからのキャンセルリダイレクトを受け取り、照合フローへ配送します
// @Tags payment
// @Produce html
// @Success 200 {string} string "受信確認ページ"
// @Router /payment/cancel [get]
func (h *ReturnHandler) HandleCancel(c echo.Context) error {
	return h.handleReturn(c, "Payment cancelled")
}

// HandleReturn 汎用リターンハンドラー
// @Summary リターンURLを受信
// @Description 成功・キャンセルのどちらともマーカーで判断できるリダイレクトを受け取ります
// @Tags payment
// @Produce html
// @Success 200 {string} string "受信確認ページ"
// @Router /payment/return [get]
func (h *ReturnHandler) HandleReturn(c echo.Context) error {
	return h.handleReturn(c, "Payment result received")
}

// handleReturn リターンURL受信の共通処理
func (h *ReturnHandler) handleReturn(c echo.Context, heading string) error {
	// リクエストの完全なURLを復元してバスに配送する
	// 解釈（成功・キャンセル・決済ID）はReconciler側のURL解析に任せる
	raw := fmt.Sprintf("http://%s%s", c.Request().Host, c.Request().RequestURI)
	h.publisher.Publish(raw)

	sig := returnurl.Parse(raw)
	h.logger.Info(c.Request().Context(), "Return URL received", map[string]interface{}{
		"path":              c.Request().URL.Path,
		"signal_kind":       sig.Kind().String(),
		"signal_payment_id": sig.PaymentID(),
	})

	if c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON {
		return c.JSON(http.StatusOK, ReturnAckResponse{
			Received:  true,
			PaymentID: sig.PaymentID(),
		})
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(returnPageHTML, heading))
}
