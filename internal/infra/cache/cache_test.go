package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SizeBound(t *testing.T) {
	c := New(3, 0)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		if c.Len() > 3 {
			t.Fatalf("len %d exceeds max size after %d inserts", c.Len(), i+1)
		}
	}

	// the three most recent keys survive
	for _, key := range []string{"k7", "k8", "k9"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to be cached", key)
		}
	}
	if _, ok := c.Get("k6"); ok {
		t.Error("expected k6 to be evicted")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, 0)

	c.Set("a", 1)
	c.Set("b", 2)

	// touching a makes b the eviction candidate
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be cached")
	}
}

func TestCache_SetReplacesRecency(t *testing.T) {
	c := New(2, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // re-set promotes a
	c.Set("c", 3)  // evicts b, not a

	if v, ok := c.Get("a"); !ok || v.(int) != 10 {
		t.Errorf("got (%v, %v), want (10, true)", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Now()
	c := New(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to be live before ttl elapses")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire at ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len = %d", c.Len())
	}
}

func TestCache_GetPromotes(t *testing.T) {
	c := New(3, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	// two more inserts evict b and c, but not the promoted a
	c.Set("d", 4)
	c.Set("e", 5)

	if _, ok := c.Get("a"); !ok {
		t.Error("expected promoted a to survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("c"); ok {
		t.Error("expected c to be evicted")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(5, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("len = %d after clear, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be gone after clear")
	}
}

func TestCache_Unbounded(t *testing.T) {
	c := New(0, 0)

	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	if c.Len() != 1000 {
		t.Errorf("len = %d, want 1000", c.Len())
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("expected k0 to be cached with no size limit")
	}
}

func TestCache_MissingKey(t *testing.T) {
	c := New(2, 0)
	if v, ok := c.Get("nope"); ok || v != nil {
		t.Errorf("got (%v, %v), want (nil, false)", v, ok)
	}
}
