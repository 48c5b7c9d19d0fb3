package checkout

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saplayer-checkout/internal/application/reconcile"
	"saplayer-checkout/internal/domain/browsing"
	"saplayer-checkout/internal/domain/outcome"
	"saplayer-checkout/internal/domain/payment"
	"saplayer-checkout/internal/domain/session"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// PaymentGateway バックエンドの決済APIインターフェース
type PaymentGateway interface {
	// CreatePayment ホスト型決済セッションを作成する
	CreatePayment(ctx context.Context, req *payment.PaymentRequest) (*session.PaymentSession, error)

	// PaymentStatus 決済ステータスを問い合わせる
	PaymentStatus(ctx context.Context, paymentID string) (payment.PaymentStatus, error)
}

// Config 決済フローの設定
type Config struct {
	BackendURL   string               // リターンURL構築用にバックエンドへ渡すURL
	ReturnScheme string               // ディープリンクのカスタムスキーム
	Policy       reconcile.PollPolicy // ステータスポーリングのポリシー
	Environment  string               // 実行環境（productionでは識別子のログ出力を抑制）
}

// CheckoutApplicationService 決済フローアプリケーションサービス
// Initiator（決済作成）、Opener（外部ブラウザ）、Reconciler（結果照合）を束ね、
// 1回の試行につき必ず一つの終端コールバックを配信する
type CheckoutApplicationService struct {
	cfg      Config
	gateway  PaymentGateway
	sessions session.SessionRepository
	slot     *session.Slot
	opener   browsing.Opener
	urls     browsing.URLSource
	clock    reconcile.Clock
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
}

// NewCheckoutApplicationService 新しいCheckoutApplicationServiceを作成
func NewCheckoutApplicationService(
	cfg Config,
	gateway PaymentGateway,
	sessions session.SessionRepository,
	slot *session.Slot,
	opener browsing.Opener,
	urls browsing.URLSource,
	clock reconcile.Clock,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CheckoutApplicationService {
	if slot == nil {
		slot = session.NewSlot()
	}
	return &CheckoutApplicationService{
		cfg:      cfg,
		gateway:  gateway,
		sessions: sessions,
		slot:     slot,
		opener:   opener,
		urls:     urls,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("checkout-service"),
	}
}

// CreatePayment 決済を作成する（Initiator）
// 必須項目の検証に失敗した場合はネットワーク呼び出しを行わずにエラーを返す。
// 成功時は決済IDを永続スロットとリポジトリに保存する
func (s *CheckoutApplicationService) CreatePayment(ctx context.Context, req *StartCheckoutRequest) (*session.PaymentSession, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutApplicationService.CreatePayment")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("amount", req.Amount),
		attribute.String("listing_id", req.ListingID),
	)

	pr := payment.NewPaymentRequest(
		req.Amount,
		req.ItemName,
		req.ItemDescription,
		req.BuyerEmail,
		req.BuyerFirstName,
		req.BuyerLastName,
		req.CellNumber,
		req.ListingID,
		req.BuyerID,
		req.SellerID,
		s.cfg.BackendURL,
	)

	// リクエスト形状の診断ログ。本番環境では識別子・メールアドレスを出力しない
	fields := map[string]interface{}{
		"amount":    req.Amount,
		"item_name": req.ItemName,
	}
	if s.cfg.Environment != "production" {
		fields["listing_id"] = req.ListingID
		fields["buyer_id"] = req.BuyerID
		fields["seller_id"] = req.SellerID
		fields["buyer_email"] = req.BuyerEmail
	}
	s.logger.Info(ctx, "Creating payment", fields)

	if err := pr.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Payment request validation failed", err, map[string]interface{}{
			"missing": pr.MissingFields(),
		})
		s.metrics.RecordError(ctx, "validation_failed")
		return nil, err
	}

	sess, err := s.gateway.CreatePayment(ctx, pr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Payment creation failed", err, nil)
		s.metrics.RecordError(ctx, "create_payment_failed")
		return nil, err
	}

	// 決済IDを永続スロットに保存する。以後の照合はUIの生存期間に依存しない
	s.slot.Store(sess.PaymentID())
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.logger.Warn(ctx, "Failed to persist payment session", map[string]interface{}{
				"payment_id": sess.PaymentID(),
				"error":      err.Error(),
			})
		}
	}

	s.metrics.RecordPaymentInitiated(ctx, req.SellerID)
	s.logger.Info(ctx, "Payment session created", map[string]interface{}{
		"payment_id": sess.PaymentID(),
	})

	return sess, nil
}

// Checkout 決済試行を最初から最後まで実行する
// 決済作成 → 外部ブラウザへのハンドオフ → 結果照合の順に進み、
// どの経路を通っても callbacks のどれか一つが一度だけ呼ばれる
func (s *CheckoutApplicationService) Checkout(ctx context.Context, req *StartCheckoutRequest, callbacks Callbacks) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutApplicationService.Checkout")
	defer span.End()

	rec := reconcile.NewReconciler(
		s.gateway,
		s.sessions,
		s.slot,
		s.cfg.Policy,
		s.clock,
		s.logger,
		s.metrics,
		s.deliver(callbacks),
	)

	// ディープリンクリスナー（ブラウザ結果ハンドラーのバックアップ経路）
	// どちらのチャネルが先に発火してもReconcilerのガードが二重配信を防ぐ
	if s.urls != nil {
		ch, cancelSub := s.urls.Subscribe(4)
		defer cancelSub()
		go func() {
			for raw := range ch {
				rec.HandleReturnURL(ctx, raw)
			}
		}()
	}

	sess, err := s.CreatePayment(ctx, req)
	if err != nil {
		rec.ResolveError(ctx, initiationErrorMessage(err))
		return err
	}
	rec.AttachSession(sess)

	res, err := s.opener.Open(ctx, sess.PaymentURL(), s.cfg.ReturnScheme)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to open payment browser", err, nil)
		rec.ResolveError(ctx, "Failed to open payment page. Please try again.")
		return err
	}

	rec.HandleBrowserResult(ctx, res)
	return nil
}

// deliver 終端結果をコールバックに変換する
func (s *CheckoutApplicationService) deliver(callbacks Callbacks) reconcile.NotifyFunc {
	return func(ctx context.Context, o outcome.Outcome) {
		switch o.Kind() {
		case outcome.OutcomeKindSuccess:
			if callbacks.OnSuccess != nil {
				callbacks.OnSuccess(PaymentData{
					PaymentID: o.PaymentID(),
					Amount:    o.Amount(),
					ItemName:  o.ItemName(),
				})
			}
		case outcome.OutcomeKindCancelled:
			if callbacks.OnCancel != nil {
				callbacks.OnCancel()
			}
		case outcome.OutcomeKindError:
			if callbacks.OnError != nil {
				callbacks.OnError(o.Message())
			}
		}
	}
}

// initiationErrorMessage 決済開始失敗をユーザー向けメッセージに変換する
func initiationErrorMessage(err error) string {
	switch {
	case errors.Is(err, payment.ErrMissingEmail), errors.Is(err, payment.ErrPlaceholderEmail):
		return "User email is required for payment. Please ensure you are logged in."
	case payment.IsValidationError(err):
		return "Missing payment information. Please refresh and try again."
	default:
		return "Failed to initialize payment. Please try again."
	}
}
