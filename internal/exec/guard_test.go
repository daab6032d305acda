package exec

import (
	"sync"
	"testing"
)

func TestNewGuard(t *testing.T) {
	g := NewGuard()

	if g.running == nil {
		t.Error("running map should be initialized")
	}
	if g.Len() != 0 {
		t.Errorf("expected empty guard, got %d keys", g.Len())
	}
}

func TestGuard_TryAcquire(t *testing.T) {
	g := NewGuard()
	key := Key{DeviceSerial: "R58M123", FlowID: "flow-1"}

	if !g.TryAcquire(key) {
		t.Fatal("first acquire should succeed")
	}
	if !g.Held(key) {
		t.Error("key should be held after acquire")
	}

	// Second acquire of the same key must fail
	if g.TryAcquire(key) {
		t.Error("second acquire of held key should fail")
	}
}

func TestGuard_Release(t *testing.T) {
	g := NewGuard()
	key := Key{DeviceSerial: "R58M123", FlowID: "flow-1"}

	g.TryAcquire(key)
	g.Release(key)

	if g.Held(key) {
		t.Error("key should not be held after release")
	}
	if !g.TryAcquire(key) {
		t.Error("acquire after release should succeed")
	}
}

func TestGuard_Release_Idempotent(t *testing.T) {
	g := NewGuard()
	key := Key{DeviceSerial: "R58M123", FlowID: "flow-1"}

	// Releasing a key that was never acquired is a no-op
	g.Release(key)
	g.Release(key)

	if !g.TryAcquire(key) {
		t.Error("acquire should succeed after redundant releases")
	}

	// Double release after a single acquire is also fine
	g.Release(key)
	g.Release(key)
	if g.Held(key) {
		t.Error("key should not be held")
	}
}

func TestGuard_IndependentKeys(t *testing.T) {
	g := NewGuard()

	keys := []Key{
		{DeviceSerial: "device-a", FlowID: "flow-1"},
		{DeviceSerial: "device-a", FlowID: "flow-2"},
		{DeviceSerial: "device-b", FlowID: "flow-1"},
	}

	for _, key := range keys {
		if !g.TryAcquire(key) {
			t.Errorf("acquire of %v should succeed, other keys do not block it", key)
		}
	}
	if g.Len() != len(keys) {
		t.Errorf("expected %d held keys, got %d", len(keys), g.Len())
	}

	// Releasing one key must not affect the others
	g.Release(keys[0])
	if g.Held(keys[0]) {
		t.Error("released key should not be held")
	}
	if !g.Held(keys[1]) || !g.Held(keys[2]) {
		t.Error("other keys should remain held")
	}
}

func TestGuard_ConcurrentAcquire(t *testing.T) {
	g := NewGuard()
	key := Key{DeviceSerial: "R58M123", FlowID: "flow-1"}

	const goroutines = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire(key) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine wins, no matter the interleaving
	if acquired != 1 {
		t.Errorf("expected exactly 1 successful acquire, got %d", acquired)
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 held key, got %d", g.Len())
	}
}
