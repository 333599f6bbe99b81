package presence

import (
	"strconv"
	"sync"
	"testing"
)

type fakeConn struct{ name string }

func (f *fakeConn) Push([]byte) bool { return true }

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{name: "c1"}

	if prev := r.Register("alice", c); prev != nil {
		t.Errorf("Register() prev = %v, want nil", prev)
	}
	got, ok := r.Lookup("alice")
	if !ok || got != c {
		t.Fatalf("Lookup() = %v, %v; want c1, true", got, ok)
	}
	if _, ok := r.Lookup("bob"); ok {
		t.Error("Lookup() for unknown user should be absent")
	}
	if r.Online() != 1 {
		t.Errorf("Online() = %d, want 1", r.Online())
	}
}

func TestRegistry_NewestConnectionWins(t *testing.T) {
	r := NewRegistry()
	c1 := &fakeConn{name: "c1"}
	c2 := &fakeConn{name: "c2"}

	r.Register("alice", c1)
	if prev := r.Register("alice", c2); prev != c1 {
		t.Errorf("Register() prev = %v, want c1", prev)
	}

	// 旧连接断开不能移除新连接的绑定
	if _, ok := r.Unregister(c1); ok {
		t.Error("Unregister(c1) should be a no-op after c2 replaced it")
	}
	got, ok := r.Lookup("alice")
	if !ok || got != c2 {
		t.Fatalf("Lookup() = %v, %v; want c2, true", got, ok)
	}

	id, ok := r.Unregister(c2)
	if !ok || id != "alice" {
		t.Errorf("Unregister(c2) = %q, %v; want alice, true", id, ok)
	}
	if r.IsOnline("alice") {
		t.Error("alice should be offline")
	}
}

func TestRegistry_RegisterSameConnTwice(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}
	r.Register("alice", c)
	if prev := r.Register("alice", c); prev != nil {
		t.Errorf("re-registering the same conn returned prev = %v", prev)
	}
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Unregister(&fakeConn{}); ok {
		t.Error("Unregister() of unknown conn should report ok=false")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	n := 50
	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = &fakeConn{name: strconv.Itoa(i)}
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register("user"+strconv.Itoa(i), conns[i])
			r.Lookup("user" + strconv.Itoa((i+1)%n))
		}(i)
	}
	wg.Wait()
	if r.Online() != n {
		t.Fatalf("Online() = %d, want %d", r.Online(), n)
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Unregister(conns[i])
		}(i)
	}
	wg.Wait()
	if r.Online() != 0 {
		t.Errorf("Online() after unregister = %d, want 0", r.Online())
	}
}
