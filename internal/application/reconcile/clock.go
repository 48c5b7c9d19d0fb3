package reconcile

import (
	"context"
	"time"
)

// Clock ポーリングの待機を差し替え可能にするインターフェース
// テストでは偽のClockを注入して経過時間を決定的に再現する
type Clock interface {
	// Sleep 指定時間待機する。コンテキストが先に終了した場合はそのエラーを返す
	Sleep(ctx context.Context, d time.Duration) error
}

// systemClock 実時間で動作するClock
type systemClock struct{}

// SystemClock 実時間のClockを返す
func SystemClock() Clock {
	return systemClock{}
}

// Sleep 指定時間待機する
func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
