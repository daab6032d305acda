package exec

import "sync"

// Key — ключ single-flight: пара (устройство, flow).
//
// Каждый ключ — отдельный домен конкурентности: выполнения с разными
// ключами никак не блокируют друг друга.
type Key struct {
	DeviceSerial string
	FlowID       string
}

// Guard — in-memory single-flight guard.
//
// Хранит множество ключей выполнений "в полёте". Состояние живёт только
// в памяти процесса и создаётся заново при рестарте — выполнения из других
// процессов guard не видит (подлинный арбитраж, если нужен, — на стороне
// backend).
//
// Никаких гарантий порядка или честности: конкурирующий запрос по занятому
// ключу отклоняется, а не ставится в очередь.
type Guard struct {
	mu      sync.Mutex
	running map[Key]struct{}
}

// NewGuard создаёт пустой Guard.
func NewGuard() *Guard {
	return &Guard{
		running: make(map[Key]struct{}),
	}
}

// TryAcquire пытается захватить ключ.
// Возвращает false без побочных эффектов, если ключ уже захвачен.
func (g *Guard) TryAcquire(key Key) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.running[key]; held {
		return false
	}
	g.running[key] = struct{}{}
	return true
}

// Release освобождает ключ.
// Идемпотентна: освобождение незахваченного ключа — no-op, не ошибка.
func (g *Guard) Release(key Key) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
}

// Held проверяет, захвачен ли ключ.
func (g *Guard) Held(key Key) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.running[key]
	return held
}

// Len возвращает количество захваченных ключей.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}
