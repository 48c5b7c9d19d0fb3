package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	historyapp "saplayer-checkout/internal/application/history"
	"saplayer-checkout/internal/infrastructure/config"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
	"saplayer-checkout/internal/presentation/rest/handler"
	restmiddleware "saplayer-checkout/internal/presentation/rest/middleware"
)

// Router リターンURLリスナーのルーター
// ホスト型決済ページからのリダイレクトをループバックで受け、
// コールバックURLバスを介して照合フローへ配送する
type Router struct {
	echo           *echo.Echo
	returnHandler  *handler.ReturnHandler
	historyHandler *handler.HistoryHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	publisher handler.URLPublisher,
	historyService *historyapp.HistoryApplicationService,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	// ハンドラーの作成
	returnHandler := handler.NewReturnHandler(publisher, logger)
	historyHandler := handler.NewHistoryHandler(historyService)

	// ルーティングの設定
	setupRoutes(e, returnHandler, historyHandler)

	return &Router{
		echo:           e,
		returnHandler:  returnHandler,
		historyHandler: historyHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定（ループバック専用リスナーだが決済ページ側のリダイレクタを許容する）
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	returnHandler *handler.ReturnHandler,
	historyHandler *handler.HistoryHandler,
) {
	// リターンURLエンドポイント
	e.GET("/payment/success", returnHandler.HandleSuccess)
	e.GET("/payment/cancel", returnHandler.HandleCancel)
	e.GET("/payment/return", returnHandler.HandleReturn)

	// 履歴エンドポイント
	e.GET("/buyers/:buyer_id/checkouts", historyHandler.GetCheckoutHistory)

	// ヘルスチェックエンドポイント
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
