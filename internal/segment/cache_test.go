package segment

import (
	"sync"
	"testing"
)

func TestCache_Split(t *testing.T) {
	c := NewCache(2)
	first := c.Split("كتابه", "")
	if len(first) != 2 {
		t.Fatalf("expected 2 segments, got %v", first)
	}
	first[0].Simple = "mutated"

	again := c.Split("كتابه", "")
	if again[0].Simple != "كتاب" {
		t.Errorf("cached result was mutated: %v", again)
	}

	c.Split("وكذلك", "")
	c.Split("بسم", "") // evicts كتابه
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
	if _, ok := c.get(cacheKey{simple: "كتابه"}); ok {
		t.Error("expected كتابه to be evicted")
	}
	if _, ok := c.get(cacheKey{simple: "بسم"}); !ok {
		t.Error("expected بسم to be present")
	}
}

func TestCache_NilAndDisabled(t *testing.T) {
	var nilCache *Cache
	if got := nilCache.Split("كتابه", ""); len(got) != 2 {
		t.Errorf("nil cache: got %v", got)
	}
	if nilCache.Len() != 0 {
		t.Error("nil cache should be empty")
	}

	off := NewCache(0)
	off.Split("كتابه", "")
	if off.Len() != 0 {
		t.Error("zero capacity should not store")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache(8)
	words := []string{"كتابه", "وكذلك", "بسم", "لكم", "سيقول"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := words[j%len(words)]
				if got := c.Split(w, ""); len(got) == 0 {
					t.Errorf("empty split for %q", w)
				}
			}
		}()
	}
	wg.Wait()
}
