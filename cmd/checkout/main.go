package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	checkoutapp "saplayer-checkout/internal/application/checkout"
	historyapp "saplayer-checkout/internal/application/history"
	"saplayer-checkout/internal/application/reconcile"
	"saplayer-checkout/internal/domain/session"
	"saplayer-checkout/internal/infrastructure/auth"
	"saplayer-checkout/internal/infrastructure/browser"
	"saplayer-checkout/internal/infrastructure/config"
	"saplayer-checkout/internal/infrastructure/deeplink"
	"saplayer-checkout/internal/infrastructure/gateway"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
	"saplayer-checkout/internal/infrastructure/persistence/memory"
	"saplayer-checkout/internal/infrastructure/persistence/mysql"
	"saplayer-checkout/internal/presentation/rest"
)

func main() {
	var (
		amount     = flag.Float64("amount", 0, "payment amount")
		itemName   = flag.String("item", "", "item name")
		itemDesc   = flag.String("description", "", "item description (defaults to item name)")
		email      = flag.String("email", "", "buyer email")
		firstName  = flag.String("first-name", "", "buyer first name")
		lastName   = flag.String("last-name", "", "buyer last name")
		cellNumber = flag.String("cell", "", "buyer cell number")
		listingID  = flag.String("listing", "", "listing id")
		buyerID    = flag.String("buyer", "", "buyer id")
		sellerID   = flag.String("seller", "", "seller id")
	)
	flag.Parse()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("saplayer-checkout")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("saplayer-checkout")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// セッションリポジトリの初期化（DB無効時はインメモリに切り替え）
	var sessions session.SessionRepository
	if cfg.Database.Enabled {
		db, err := mysql.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		sessions = mysql.NewSessionRepository(db)
	} else {
		sessions = memory.NewSessionRepository()
	}

	// コールバックURLバスの初期化
	bus := deeplink.NewBus()
	defer bus.Close()

	// リターンURLリスナーの起動
	historyService := historyapp.NewHistoryApplicationService(sessions, logger)
	if cfg.Listener.Enabled {
		router, err := rest.NewRouter(cfg, logger, metrics, bus, historyService)
		if err != nil {
			log.Fatalf("Failed to create return URL listener: %v", err)
		}
		go func() {
			log.Printf("Return URL listener starting on %s", cfg.Listener.Address())
			if err := router.Start(cfg.Listener.Address()); err != nil {
				log.Printf("Return URL listener error: %v", err)
			}
		}()
		defer func() {
			if err := router.Shutdown(); err != nil {
				log.Printf("Error shutting down return URL listener: %v", err)
			}
		}()
	}

	// 決済ゲートウェイとアプリケーションサービスの初期化
	tokens := auth.NewTokenSource(&cfg.Auth)
	client := gateway.NewClient(&cfg.Backend, tokens, logger)
	opener := browser.NewSystemOpener(bus, cfg.Checkout.BrowserTimeout, logger)

	checkoutService := checkoutapp.NewCheckoutApplicationService(
		checkoutapp.Config{
			BackendURL:   cfg.Backend.BaseURL,
			ReturnScheme: cfg.Checkout.ReturnScheme,
			Environment:  cfg.Environment,
			Policy: reconcile.PollPolicy{
				MaxAttempts: cfg.Checkout.MaxPollAttempts,
				Interval:    cfg.Checkout.PollInterval,
				Grace:       cfg.Checkout.PollGrace,
			},
		},
		client,
		sessions,
		session.NewSlot(),
		opener,
		bus,
		reconcile.SystemClock(),
		logger,
		metrics,
	)

	// シグナルで決済試行を中断できるようにする
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{}, 1)
	callbacks := checkoutapp.Callbacks{
		OnSuccess: func(data checkoutapp.PaymentData) {
			log.Printf("Payment successful: id=%s amount=%.2f item=%q", data.PaymentID, data.Amount, data.ItemName)
			done <- struct{}{}
		},
		OnCancel: func() {
			log.Println("Payment was cancelled")
			done <- struct{}{}
		},
		OnError: func(message string) {
			log.Printf("Payment failed: %s", message)
			done <- struct{}{}
		},
	}

	go func() {
		_ = checkoutService.Checkout(ctx, &checkoutapp.StartCheckoutRequest{
			Amount:          *amount,
			ItemName:        *itemName,
			ItemDescription: *itemDesc,
			BuyerEmail:      *email,
			BuyerFirstName:  *firstName,
			BuyerLastName:   *lastName,
			CellNumber:      *cellNumber,
			ListingID:       *listingID,
			BuyerID:         *buyerID,
			SellerID:        *sellerID,
		}, callbacks)
	}()

	select {
	case <-done:
		log.Println("Checkout attempt finished")
	case <-ctx.Done():
		log.Println("Interrupted, shutting down")
	}
}
