package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"saplayer-checkout/internal/domain/browsing"
	"saplayer-checkout/internal/domain/outcome"
	"saplayer-checkout/internal/domain/payment"
	"saplayer-checkout/internal/domain/returnurl"
	"saplayer-checkout/internal/domain/session"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// State Reconcilerの状態
type State string

const (
	StateIdle           State = "idle"            // 初期状態
	StateAwaitingResult State = "awaiting_result" // 外部ブラウザの結果待ち
	StateParsingURL     State = "parsing_url"     // ランディングURLの解析中
	StatePolling        State = "polling"         // ステータスエンドポイントのポーリング中
	StateResolved       State = "resolved"        // 結果配信済み（終端）
)

// StatusChecker バックエンドのステータスエンドポイントへの問い合わせインターフェース
// 決済が未記録の場合はpayment.ErrPaymentNotRecordedを返す
type StatusChecker interface {
	PaymentStatus(ctx context.Context, paymentID string) (payment.PaymentStatus, error)
}

// NotifyFunc 終端結果の配信先
type NotifyFunc func(ctx context.Context, o outcome.Outcome)

// PollPolicy ポーリングポリシー
type PollPolicy struct {
	MaxAttempts int           // 最大試行回数
	Interval    time.Duration // 試行間の固定待機時間
	Grace       time.Duration // 初回試行前の猶予（ITNの到着を待つ）
}

// DefaultPollPolicy デフォルトのポーリングポリシーを返す
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		MaxAttempts: 5,
		Interval:    2 * time.Second,
		Grace:       1 * time.Second,
	}
}

// Reconciler 決済試行ごとの結果照合ステートマシン
// ディープリンクリスナーとブラウザ結果ハンドラーの両方が同じ入口に合流し、
// 試行スコープのガードによってどちらが先に発火しても結果配信は一度だけになる
type Reconciler struct {
	checker  StatusChecker
	sessions session.SessionRepository
	slot     *session.Slot
	policy   PollPolicy
	clock    Clock
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	notify   NotifyFunc

	mu    sync.Mutex
	state State
	sess  *session.PaymentSession

	polling  atomic.Bool // ガード: ポーリングループは同時に一つだけ
	resolved atomic.Bool // ガード: 結果配信は一度だけ
}

// NewReconciler 新しいReconcilerを作成
func NewReconciler(
	checker StatusChecker,
	sessions session.SessionRepository,
	slot *session.Slot,
	policy PollPolicy,
	clock Clock,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	notify NotifyFunc,
) *Reconciler {
	if clock == nil {
		clock = SystemClock()
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultPollPolicy()
	}
	return &Reconciler{
		checker:  checker,
		sessions: sessions,
		slot:     slot,
		policy:   policy,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("reconciler"),
		notify:   notify,
		state:    StateIdle,
	}
}

// AttachSession 照合対象のPaymentSessionを紐付ける
func (r *Reconciler) AttachSession(sess *session.PaymentSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sess = sess
	if r.state == StateIdle {
		r.state = StateAwaitingResult
	}
}

// State 現在の状態を返す
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Resolved 結果配信済みかどうかを返す
func (r *Reconciler) Resolved() bool {
	return r.resolved.Load()
}

// HandleReturnURL ランディングURLから結果を解決する
// ディープリンクリスナーとブラウザ継続の両方がここに合流する
func (r *Reconciler) HandleReturnURL(ctx context.Context, rawURL string) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.HandleReturnURL")
	defer span.End()

	if r.resolved.Load() {
		return
	}
	r.setState(StateParsingURL)

	sig := returnurl.Parse(rawURL)
	span.SetAttributes(
		attribute.String("signal_kind", sig.Kind().String()),
		attribute.Bool("has_payment_id", sig.PaymentID() != ""),
	)

	switch {
	case sig.IsSuccess():
		r.logger.Info(ctx, "Payment success detected from return URL", map[string]interface{}{
			"signal_payment_id": sig.PaymentID(),
		})
		r.resolveSuccess(ctx, sig.PaymentID())
	case sig.IsCancel():
		r.logger.Info(ctx, "Payment cancel detected from return URL", nil)
		r.resolve(ctx, outcome.NewCancelled())
	default:
		// マーカー不一致。URLシグナルだけでは判断できないのでポーリングに降りる
		r.logger.Warn(ctx, "Return URL has no recognizable markers, falling back to polling", nil)
		r.Poll(ctx, sig.PaymentID())
	}
}

// HandleBrowserResult 外部ブラウザセッションの結果から照合を進める
// ブラウザの結果は参考情報にすぎないため、確定できないものはすべてポーリングへ
func (r *Reconciler) HandleBrowserResult(ctx context.Context, res browsing.Result) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.HandleBrowserResult")
	defer span.End()
	span.SetAttributes(attribute.String("result_type", res.Type().String()))

	if r.resolved.Load() {
		return
	}

	if res.IsDefinitive() {
		r.HandleReturnURL(ctx, res.URL())
		return
	}

	// cancel/dismissは決済成功後にブラウザを閉じただけの可能性がある
	r.logger.Warn(ctx, "Browser closed without captured redirect, checking payment status", map[string]interface{}{
		"result_type": res.Type().String(),
	})
	r.Poll(ctx, "")
}

// Poll ステータスエンドポイントへの有限回ポーリングで結果を解決する
// 決済IDは 明示的な上書き → セッション保持のID → 永続スロットのID の順で解決し、
// どれも得られない場合はキャンセルとして閉じる
func (r *Reconciler) Poll(ctx context.Context, overridePaymentID string) {
	ctx, span := r.tracer.Start(ctx, "Reconciler.Poll")
	defer span.End()

	if r.resolved.Load() {
		return
	}

	// ガード: 同時に一つのポーリングループだけを許可する
	if !r.polling.CompareAndSwap(false, true) {
		r.logger.Info(ctx, "Status polling already running, skipping", nil)
		return
	}
	defer r.polling.Store(false)

	r.setState(StatePolling)
	start := time.Now()

	paymentID := r.resolvePaymentID(overridePaymentID)
	if paymentID == "" {
		r.logger.Warn(ctx, "No payment id available, treating as cancelled", nil)
		r.resolve(ctx, outcome.NewCancelled())
		return
	}
	span.SetAttributes(attribute.String("payment_id", paymentID))

	// ITNがバックエンドに届くまでの猶予
	if err := r.clock.Sleep(ctx, r.policy.Grace); err != nil {
		r.resolve(ctx, outcome.NewCancelled())
		return
	}

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.clock.Sleep(ctx, r.policy.Interval); err != nil {
				r.resolve(ctx, outcome.NewCancelled())
				return
			}
		}
		if r.resolved.Load() {
			// もう一方のチャネルが先に解決した
			return
		}

		r.logger.Info(ctx, "Payment status check attempt", map[string]interface{}{
			"payment_id":   paymentID,
			"attempt":      attempt,
			"max_attempts": r.policy.MaxAttempts,
		})
		r.metrics.RecordPollAttempt(ctx, attempt)

		status, err := r.checker.PaymentStatus(ctx, paymentID)
		switch {
		case err == nil && status.IsComplete():
			r.logger.Info(ctx, "Payment verified as complete via status check", map[string]interface{}{
				"payment_id": paymentID,
				"attempt":    attempt,
			})
			r.metrics.RecordReconcileDuration(ctx, time.Since(start).Seconds())
			r.resolveSuccess(ctx, paymentID)
			return
		case err == nil && status.IsFailed():
			r.logger.Info(ctx, "Payment reported as failed", map[string]interface{}{
				"payment_id": paymentID,
			})
			r.resolve(ctx, outcome.NewCancelled())
			return
		case err == nil:
			// pendingのまま。試行が残っていれば再試行
		case errors.Is(err, payment.ErrPaymentNotRecorded):
			// ITN未着の可能性。試行が残っていれば再試行
			r.logger.Info(ctx, "Payment not found in status store yet", map[string]interface{}{
				"payment_id": paymentID,
				"attempt":    attempt,
			})
		default:
			r.logger.Warn(ctx, "Payment status check failed", map[string]interface{}{
				"payment_id": paymentID,
				"attempt":    attempt,
				"error":      err.Error(),
			})
		}
	}

	// 試行回数を使い切った。未確定の決済はエラーではなくキャンセルに縮退させる
	// （完了済みの決済を取りこぼすリスクは受容し、WARNで手動照合の手掛かりを残す）
	r.logger.Warn(ctx, "Payment status polling exhausted while still unresolved", map[string]interface{}{
		"payment_id":   paymentID,
		"max_attempts": r.policy.MaxAttempts,
	})
	r.metrics.RecordReconcileDuration(ctx, time.Since(start).Seconds())
	r.resolve(ctx, outcome.NewCancelled())
}

// ResolveError 決済開始失敗などのエラーを終端結果として配信する
func (r *Reconciler) ResolveError(ctx context.Context, message string) {
	r.resolve(ctx, outcome.NewError(message))
}

// resolvePaymentID 照合に使う決済IDを優先順に解決する
func (r *Reconciler) resolvePaymentID(override string) string {
	if override != "" {
		return override
	}
	r.mu.Lock()
	sess := r.sess
	r.mu.Unlock()
	if sess != nil && sess.PaymentID() != "" {
		return sess.PaymentID()
	}
	if r.slot != nil {
		return r.slot.Load()
	}
	return ""
}

// resolveSuccess 成功の終端結果を構築して配信する
func (r *Reconciler) resolveSuccess(ctx context.Context, paymentID string) {
	if paymentID == "" {
		paymentID = r.resolvePaymentID("")
	}
	if paymentID == "" {
		paymentID = fmt.Sprintf("pf_%s", uuid.NewString())
	}

	r.mu.Lock()
	sess := r.sess
	r.mu.Unlock()

	var amount float64
	var itemName string
	if sess != nil {
		amount = sess.Amount()
		itemName = sess.ItemName()
	}
	r.resolve(ctx, outcome.NewSuccess(paymentID, amount, itemName))
}

// resolve 終端結果を一度だけ配信し、セッションの状態を永続化する
func (r *Reconciler) resolve(ctx context.Context, o outcome.Outcome) {
	if !r.resolved.CompareAndSwap(false, true) {
		return
	}
	r.setState(StateResolved)
	r.metrics.RecordOutcome(ctx, o.Kind().String())

	r.persistOutcome(ctx, o)

	if r.notify != nil {
		r.notify(ctx, o)
	}
}

// persistOutcome セッションの終端状態をリポジトリに反映する（ベストエフォート）
func (r *Reconciler) persistOutcome(ctx context.Context, o outcome.Outcome) {
	r.mu.Lock()
	sess := r.sess
	r.mu.Unlock()
	if sess == nil || r.sessions == nil {
		return
	}

	switch o.Kind() {
	case outcome.OutcomeKindSuccess:
		sess.Complete()
	case outcome.OutcomeKindCancelled:
		sess.Cancel()
	case outcome.OutcomeKindError:
		sess.Fail()
	}

	if err := r.sessions.Update(ctx, sess); err != nil {
		r.logger.Warn(ctx, "Failed to persist session outcome", map[string]interface{}{
			"payment_id": sess.PaymentID(),
			"error":      err.Error(),
		})
	}
}

// setState 状態を更新する
func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateResolved {
		return
	}
	r.state = s
}
