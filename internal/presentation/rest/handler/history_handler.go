package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "saplayer-checkout/internal/application/history"
)

// HistoryHandler 決済履歴ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// GetCheckoutHistory 決済履歴取得ハンドラー
// @Summary 決済セッション履歴を取得
// @Description 指定された購入者の決済セッション履歴を新しい順で取得します
// @Tags history
// @Accept json
// @Produce json
// @Param buyer_id path string true "購入者ID" example(buyer123)
// @Param limit query int false "取得件数（デフォルト: 20, 最大: 100)" default(20) example(20)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0) example(0)
// @Param status query string false "ステータスでフィルタ（pending/completed/cancelled/failed）" example(completed)
// @Success 200 {object} CheckoutHistoryResponse "履歴取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /buyers/{buyer_id}/checkouts [get]
func (h *HistoryHandler) GetCheckoutHistory(c echo.Context) error {
	buyerID := c.Param("buyer_id")
	if buyerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_id is required")
	}

	// クエリパラメータを取得
	limit := 20 // デフォルト値
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	offset := 0 // デフォルト値
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}

	status := c.QueryParam("status")

	result, err := h.historyService.GetCheckoutHistory(c.Request().Context(), historyapp.GetCheckoutHistoryQuery{
		BuyerID: buyerID,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return err
	}

	// セッションをレスポンス形式に変換
	sessions := make([]CheckoutSessionItem, len(result.Entries))
	for i, entry := range result.Entries {
		sessions[i] = CheckoutSessionItem{
			PaymentID: entry.PaymentID,
			ListingID: entry.ListingID,
			SellerID:  entry.SellerID,
			Amount:    entry.Amount,
			ItemName:  entry.ItemName,
			Status:    entry.Status,
			CreatedAt: entry.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt: entry.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return c.JSON(http.StatusOK, CheckoutHistoryResponse{
		Sessions: sessions,
		Limit:    result.Limit,
		Offset:   result.Offset,
	})
}
