package broadcast

import (
	"errors"
	"sync"
	"testing"
)

// fakeConn records writes and close calls for registry and broadcaster tests.
type fakeConn struct {
	mu       sync.Mutex
	writes   []any
	closed   bool
	writeErr error
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) written() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.writes...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegistry_Register(t *testing.T) {
	t.Run("first registration has no replacement", func(t *testing.T) {
		reg := NewRegistry()
		entry := NewEntry("user-1", &fakeConn{})

		if replaced := reg.Register(entry); replaced != nil {
			t.Errorf("expected no replaced entry, got %v", replaced.ID)
		}
		if reg.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", reg.Len())
		}
	})

	t.Run("last write wins per user", func(t *testing.T) {
		reg := NewRegistry()
		first := NewEntry("user-1", &fakeConn{})
		second := NewEntry("user-1", &fakeConn{})

		reg.Register(first)
		replaced := reg.Register(second)

		if replaced != first {
			t.Fatalf("expected first entry to be replaced")
		}
		if reg.Len() != 1 {
			t.Errorf("expected 1 entry after replacement, got %d", reg.Len())
		}

		current, ok := reg.Lookup("user-1")
		if !ok {
			t.Fatal("expected user-1 to be registered")
		}
		if current.ID != second.ID {
			t.Errorf("expected lookup to return the newest entry")
		}
	})

	t.Run("distinct users keep distinct entries", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(NewEntry("user-1", &fakeConn{}))
		reg.Register(NewEntry("user-2", &fakeConn{}))

		if reg.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", reg.Len())
		}
	})
}

func TestRegistry_Deregister(t *testing.T) {
	t.Run("removes current entry", func(t *testing.T) {
		reg := NewRegistry()
		entry := NewEntry("user-1", &fakeConn{})
		reg.Register(entry)

		reg.Deregister("user-1", entry.ID)

		if _, ok := reg.Lookup("user-1"); ok {
			t.Error("expected user-1 to be deregistered")
		}
	})

	t.Run("stale deregistration is a no-op", func(t *testing.T) {
		reg := NewRegistry()
		old := NewEntry("user-1", &fakeConn{})
		reg.Register(old)
		current := NewEntry("user-1", &fakeConn{})
		reg.Register(current)

		// The superseded connection's cleanup must not tear down the
		// reconnect that replaced it.
		reg.Deregister("user-1", old.ID)

		entry, ok := reg.Lookup("user-1")
		if !ok {
			t.Fatal("expected user-1 to remain registered")
		}
		if entry.ID != current.ID {
			t.Errorf("expected the current entry to survive")
		}
	})

	t.Run("unknown user is a no-op", func(t *testing.T) {
		reg := NewRegistry()
		reg.Deregister("nobody", "whatever")
		if reg.Len() != 0 {
			t.Errorf("expected empty registry, got %d entries", reg.Len())
		}
	})
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := NewRegistry()
	conns := []*fakeConn{{}, {}, {}}
	for i, conn := range conns {
		reg.Register(NewEntry("user-"+string(rune('a'+i)), conn))
	}

	reg.CloseAll()

	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d entries", reg.Len())
	}
	for i, conn := range conns {
		if !conn.isClosed() {
			t.Errorf("expected connection %d to be closed", i)
		}
	}
}

func TestEntry_Send(t *testing.T) {
	t.Run("propagates write errors", func(t *testing.T) {
		conn := &fakeConn{writeErr: errors.New("broken pipe")}
		entry := NewEntry("user-1", conn)

		if err := entry.Send("payload"); err == nil {
			t.Error("expected write error, got nil")
		}
	})

	t.Run("concurrent sends are serialized", func(t *testing.T) {
		conn := &fakeConn{}
		entry := NewEntry("user-1", conn)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = entry.Send(n)
			}(i)
		}
		wg.Wait()

		if got := len(conn.written()); got != 20 {
			t.Errorf("expected 20 writes, got %d", got)
		}
	})
}
