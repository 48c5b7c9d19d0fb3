package session

import (
	"sync"
)

// Slot 決済IDの永続スロット
// Initiatorが一度だけ書き込み、以後の照合ステージが読み取る。
// 書き込みは単一、読み取りは複数という構成なので単純なRWMutexで足りる
type Slot struct {
	mu        sync.RWMutex
	paymentID string
}

// NewSlot 新しいSlotを作成
func NewSlot() *Slot {
	return &Slot{}
}

// Store 決済IDを保存する
func (s *Slot) Store(paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentID = paymentID
}

// Load 保存された決済IDを返す（未保存なら空文字列）
func (s *Slot) Load() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentID
}
