package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"saplayer-checkout/internal/domain/browsing"
	"saplayer-checkout/internal/domain/outcome"
	"saplayer-checkout/internal/domain/payment"
	"saplayer-checkout/internal/domain/session"
	otelinfra "saplayer-checkout/internal/infrastructure/observability/otel"
)

// MockStatusChecker モックステータスチェッカー
type MockStatusChecker struct {
	mock.Mock
}

func (m *MockStatusChecker) PaymentStatus(ctx context.Context, paymentID string) (payment.PaymentStatus, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(payment.PaymentStatus), args.Error(1)
}

// fakeClock 待機時間を記録するだけで実際には眠らないClock
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	return nil
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// outcomeCapture 配信された終端結果を記録する
type outcomeCapture struct {
	mu       sync.Mutex
	outcomes []outcome.Outcome
}

func (c *outcomeCapture) notify(ctx context.Context, o outcome.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *outcomeCapture) all() []outcome.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]outcome.Outcome(nil), c.outcomes...)
}

func testPolicy() PollPolicy {
	return PollPolicy{
		MaxAttempts: 5,
		Interval:    2 * time.Second,
		Grace:       1 * time.Second,
	}
}

func newTestReconciler(t *testing.T, checker StatusChecker, slot *session.Slot, capture *outcomeCapture) *Reconciler {
	t.Helper()
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	metrics, err := otelinfra.NewMetrics("reconciler-test")
	require.NoError(t, err)

	return NewReconciler(checker, nil, slot, testPolicy(), &fakeClock{}, logger, metrics, capture.notify)
}

func attachedSession() *session.PaymentSession {
	return session.NewPaymentSession(
		"pf_session_id",
		"https://payment.example.org/pay/pf_session_id",
		"buyer123",
		"seller123",
		"listing123",
		150.00,
		"Charizard Holo 1st Edition",
		"",
	)
}

func TestReconciler_HandleReturnURL(t *testing.T) {
	tests := []struct {
		name          string
		rawURL        string
		setupChecker  func(*MockStatusChecker)
		wantKind      outcome.OutcomeKind
		wantPaymentID string
	}{
		{
			name:          "正常系: 成功URLで即時に成功として解決",
			rawURL:        "saplayer://payment/success",
			setupChecker:  func(m *MockStatusChecker) {},
			wantKind:      outcome.OutcomeKindSuccess,
			wantPaymentID: "pf_session_id",
		},
		{
			name:          "正常系: m_payment_id付きの成功URLはURL側のIDが優先される",
			rawURL:        "saplayer://payment/success?m_payment_id=pf_from_url",
			setupChecker:  func(m *MockStatusChecker) {},
			wantKind:      outcome.OutcomeKindSuccess,
			wantPaymentID: "pf_from_url",
		},
		{
			name:         "正常系: キャンセルURLでキャンセルとして解決",
			rawURL:       "saplayer://payment/cancel",
			setupChecker: func(m *MockStatusChecker) {},
			wantKind:     outcome.OutcomeKindCancelled,
		},
		{
			name:   "正常系: マーカーなしのURLはポーリングに降りる",
			rawURL: "saplayer://home",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusComplete, nil).Once()
			},
			wantKind:      outcome.OutcomeKindSuccess,
			wantPaymentID: "pf_session_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(MockStatusChecker)
			tt.setupChecker(checker)
			capture := &outcomeCapture{}

			rec := newTestReconciler(t, checker, session.NewSlot(), capture)
			rec.AttachSession(attachedSession())

			rec.HandleReturnURL(context.Background(), tt.rawURL)

			outcomes := capture.all()
			require.Len(t, outcomes, 1)
			assert.Equal(t, tt.wantKind, outcomes[0].Kind())
			if tt.wantPaymentID != "" {
				assert.Equal(t, tt.wantPaymentID, outcomes[0].PaymentID())
			}
			assert.Equal(t, StateResolved, rec.State())
			assert.True(t, rec.Resolved())
			checker.AssertExpectations(t)
		})
	}
}

func TestReconciler_HandleReturnURL_SuccessCarriesSessionDetails(t *testing.T) {
	capture := &outcomeCapture{}
	rec := newTestReconciler(t, new(MockStatusChecker), session.NewSlot(), capture)
	rec.AttachSession(attachedSession())

	rec.HandleReturnURL(context.Background(), "saplayer://payment/success")

	outcomes := capture.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, 150.00, outcomes[0].Amount())
	assert.Equal(t, "Charizard Holo 1st Edition", outcomes[0].ItemName())
}

func TestReconciler_Poll(t *testing.T) {
	tests := []struct {
		name         string
		setupChecker func(*MockStatusChecker)
		wantKind     outcome.OutcomeKind
		wantSleeps   []time.Duration
	}{
		{
			name: "正常系: 2回目の試行で完了を検知して成功",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusPending, nil).Once()
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusComplete, nil).Once()
			},
			wantKind:   outcome.OutcomeKindSuccess,
			wantSleeps: []time.Duration{time.Second, 2 * time.Second},
		},
		{
			name: "正常系: 失敗ステータスで即キャンセル",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusFailed, nil).Once()
			},
			wantKind:   outcome.OutcomeKindCancelled,
			wantSleeps: []time.Duration{time.Second},
		},
		{
			name: "正常系: pendingのまま試行上限に達したらキャンセルに縮退",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusPending, nil).Times(5)
			},
			wantKind:   outcome.OutcomeKindCancelled,
			wantSleeps: []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		},
		{
			name: "正常系: レコード未作成が続いてもエラーではなくキャンセル",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatus(""), payment.ErrPaymentNotRecorded).Times(5)
			},
			wantKind:   outcome.OutcomeKindCancelled,
			wantSleeps: []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		},
		{
			name: "正常系: ネットワークエラーが続いてもエラーではなくキャンセル",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatus(""), errors.New("connection refused")).Times(5)
			},
			wantKind:   outcome.OutcomeKindCancelled,
			wantSleeps: []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		},
		{
			name: "正常系: エラーの後に完了を検知したら成功",
			setupChecker: func(m *MockStatusChecker) {
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatus(""), payment.ErrPaymentNotRecorded).Once()
				m.On("PaymentStatus", mock.Anything, "pf_session_id").
					Return(payment.PaymentStatusComplete, nil).Once()
			},
			wantKind: outcome.OutcomeKindSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(MockStatusChecker)
			tt.setupChecker(checker)
			capture := &outcomeCapture{}

			logger := otelinfra.NewLogger(otel.Tracer("test"))
			metrics, err := otelinfra.NewMetrics("reconciler-test")
			require.NoError(t, err)
			clock := &fakeClock{}

			rec := NewReconciler(checker, nil, session.NewSlot(), testPolicy(), clock, logger, metrics, capture.notify)
			rec.AttachSession(attachedSession())

			rec.Poll(context.Background(), "")

			outcomes := capture.all()
			require.Len(t, outcomes, 1)
			assert.Equal(t, tt.wantKind, outcomes[0].Kind())
			if tt.wantSleeps != nil {
				assert.Equal(t, tt.wantSleeps, clock.recorded())
			}
			checker.AssertExpectations(t)
		})
	}
}

func TestReconciler_Poll_PaymentIDResolution(t *testing.T) {
	t.Run("正常系: 上書きIDがセッションIDより優先される", func(t *testing.T) {
		checker := new(MockStatusChecker)
		checker.On("PaymentStatus", mock.Anything, "pf_override").
			Return(payment.PaymentStatusComplete, nil).Once()
		capture := &outcomeCapture{}

		rec := newTestReconciler(t, checker, session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		rec.Poll(context.Background(), "pf_override")

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, "pf_override", outcomes[0].PaymentID())
		checker.AssertExpectations(t)
	})

	t.Run("正常系: セッションがなければ永続スロットのIDを使う", func(t *testing.T) {
		checker := new(MockStatusChecker)
		checker.On("PaymentStatus", mock.Anything, "pf_slot").
			Return(payment.PaymentStatusComplete, nil).Once()
		capture := &outcomeCapture{}

		slot := session.NewSlot()
		slot.Store("pf_slot")
		rec := newTestReconciler(t, checker, slot, capture)

		rec.Poll(context.Background(), "")

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
		checker.AssertExpectations(t)
	})

	t.Run("正常系: 決済IDがどこにもなければ問い合わせずにキャンセル", func(t *testing.T) {
		checker := new(MockStatusChecker)
		capture := &outcomeCapture{}

		rec := newTestReconciler(t, checker, session.NewSlot(), capture)

		rec.Poll(context.Background(), "")

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindCancelled, outcomes[0].Kind())
		checker.AssertNotCalled(t, "PaymentStatus", mock.Anything, mock.Anything)
	})
}

func TestReconciler_HandleBrowserResult(t *testing.T) {
	t.Run("正常系: URL付きの成功結果はURL解析で解決", func(t *testing.T) {
		capture := &outcomeCapture{}
		rec := newTestReconciler(t, new(MockStatusChecker), session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		rec.HandleBrowserResult(context.Background(), browsing.NewSuccessResult("saplayer://payment/success"))

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
	})

	t.Run("正常系: 閉じられた結果はポーリングで確認する", func(t *testing.T) {
		checker := new(MockStatusChecker)
		checker.On("PaymentStatus", mock.Anything, "pf_session_id").
			Return(payment.PaymentStatusComplete, nil).Once()
		capture := &outcomeCapture{}

		rec := newTestReconciler(t, checker, session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		rec.HandleBrowserResult(context.Background(), browsing.NewDismissResult())

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
		checker.AssertExpectations(t)
	})

	t.Run("正常系: キャンセル結果でも決済完了ならポーリングが成功を拾う", func(t *testing.T) {
		checker := new(MockStatusChecker)
		checker.On("PaymentStatus", mock.Anything, "pf_session_id").
			Return(payment.PaymentStatusComplete, nil).Once()
		capture := &outcomeCapture{}

		rec := newTestReconciler(t, checker, session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		rec.HandleBrowserResult(context.Background(), browsing.NewCancelResult())

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
	})
}

func TestReconciler_ResolveError(t *testing.T) {
	capture := &outcomeCapture{}
	rec := newTestReconciler(t, new(MockStatusChecker), session.NewSlot(), capture)

	rec.ResolveError(context.Background(), "Failed to initialize payment. Please try again.")

	outcomes := capture.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, outcome.OutcomeKindError, outcomes[0].Kind())
	assert.Equal(t, "Failed to initialize payment. Please try again.", outcomes[0].Message())
}

func TestReconciler_DeliversExactlyOnce(t *testing.T) {
	t.Run("正常系: 解決済みの後のURLは無視される", func(t *testing.T) {
		capture := &outcomeCapture{}
		rec := newTestReconciler(t, new(MockStatusChecker), session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		rec.HandleReturnURL(context.Background(), "saplayer://payment/success")
		rec.HandleReturnURL(context.Background(), "saplayer://payment/cancel")
		rec.HandleBrowserResult(context.Background(), browsing.NewDismissResult())

		outcomes := capture.all()
		require.Len(t, outcomes, 1)
		assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
	})

	t.Run("正常系: ディープリンクとブラウザ結果が同時に発火しても配信は一度だけ", func(t *testing.T) {
		checker := new(MockStatusChecker)
		checker.On("PaymentStatus", mock.Anything, mock.Anything).
			Return(payment.PaymentStatusComplete, nil).Maybe()
		capture := &outcomeCapture{}

		rec := newTestReconciler(t, checker, session.NewSlot(), capture)
		rec.AttachSession(attachedSession())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec.HandleReturnURL(context.Background(), "saplayer://payment/success")
		}()
		go func() {
			defer wg.Done()
			rec.HandleBrowserResult(context.Background(), browsing.NewDismissResult())
		}()
		wg.Wait()

		assert.Len(t, capture.all(), 1)
	})
}

func TestReconciler_SuccessWithoutAnyPaymentID(t *testing.T) {
	// セッションもスロットもIDを持たない状態で成功URLが届いた場合、
	// フォールバックの決済IDを生成して成功として配信する
	capture := &outcomeCapture{}
	rec := newTestReconciler(t, new(MockStatusChecker), session.NewSlot(), capture)

	rec.HandleReturnURL(context.Background(), "saplayer://payment/success")

	outcomes := capture.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, outcome.OutcomeKindSuccess, outcomes[0].Kind())
	assert.True(t, strings.HasPrefix(outcomes[0].PaymentID(), "pf_"))
}

func TestReconciler_PersistsOutcome(t *testing.T) {
	capture := &outcomeCapture{}
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	metrics, err := otelinfra.NewMetrics("reconciler-test")
	require.NoError(t, err)

	sessions := &recordingSessionRepo{}
	sess := attachedSession()

	rec := NewReconciler(new(MockStatusChecker), sessions, session.NewSlot(), testPolicy(), &fakeClock{}, logger, metrics, capture.notify)
	rec.AttachSession(sess)

	rec.HandleReturnURL(context.Background(), "saplayer://payment/success")

	require.Len(t, sessions.updated, 1)
	assert.Equal(t, session.SessionStatusCompleted, sessions.updated[0].Status())
}

// recordingSessionRepo Updateの呼び出しを記録するリポジトリ
type recordingSessionRepo struct {
	mu      sync.Mutex
	updated []*session.PaymentSession
}

func (r *recordingSessionRepo) Save(ctx context.Context, s *session.PaymentSession) error {
	return nil
}

func (r *recordingSessionRepo) FindByPaymentID(ctx context.Context, paymentID string) (*session.PaymentSession, error) {
	return nil, session.ErrSessionNotFound
}

func (r *recordingSessionRepo) Update(ctx context.Context, s *session.PaymentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, s)
	return nil
}

func (r *recordingSessionRepo) FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*session.PaymentSession, error) {
	return nil, nil
}
