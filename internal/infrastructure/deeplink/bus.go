package deeplink

import (
	"sync"
)

// Bus OSから配信されるコールバックURLをプロセス内で配送するバス
// リターンURLリスナーが発行し、ブラウザOpenerや決済フローの常駐リスナーが購読する。
// どの購読者にも同じURLが届くため、複数チャネルの競合はReconcilerのガードで解決される
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan string
	nextID int
	closed bool
}

// NewBus 新しいBusを作成
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan string),
	}
}

// Subscribe コールバックURLの購読を開始する
// 返される解除関数を呼ぶとチャネルがクローズされる
func (b *Bus) Subscribe(buffer int) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan string, buffer)
	id := b.nextID
	b.nextID++

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish コールバックURLを全購読者に配送する
// バッファが埋まっている購読者はスキップする（配送はベストエフォート）
func (b *Bus) Publish(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- url:
		default:
		}
	}
}

// Close バスを閉じ、全購読チャネルをクローズする
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
