package memory

import (
	"context"
	"sort"
	"sync"

	"saplayer-checkout/internal/domain/session"
)

// SessionRepository インメモリ実装のSessionRepository
// 単体のCLI実行やテストのデフォルトとして使う
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*session.PaymentSession
}

// NewSessionRepository 新しいインメモリSessionRepositoryを作成
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*session.PaymentSession),
	}
}

// Save PaymentSessionを保存
func (r *SessionRepository) Save(ctx context.Context, s *session.PaymentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.PaymentID()] = s
	return nil
}

// FindByPaymentID 決済IDでPaymentSessionを取得
func (r *SessionRepository) FindByPaymentID(ctx context.Context, paymentID string) (*session.PaymentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[paymentID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

// Update PaymentSessionを更新
func (r *SessionRepository) Update(ctx context.Context, s *session.PaymentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.PaymentID()]; !ok {
		return session.ErrSessionNotFound
	}
	r.sessions[s.PaymentID()] = s
	return nil
}

// FindByBuyerID 購入者IDでPaymentSessionを新しい順に取得
func (r *SessionRepository) FindByBuyerID(ctx context.Context, buyerID string, limit, offset int) ([]*session.PaymentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*session.PaymentSession
	for _, s := range r.sessions {
		if s.BuyerID() == buyerID {
			matched = append(matched, s)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, nil
}
