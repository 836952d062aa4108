package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(1024) // 1KB capacity

	key := "test-key"
	value := []byte("test-value")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}

	if !cache.Contains(key) {
		t.Error("Contains returned false for existing key")
	}

	// Small values are stored uncompressed.
	if cache.Size() != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", cache.Size(), len(value))
	}

	if err := cache.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if cache.Contains(key) {
		t.Error("Key still exists after delete")
	}
	if cache.Size() != 0 {
		t.Errorf("Size not zero after delete: %d", cache.Size())
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(100)

	for i := 0; i < 5; i++ {
		if err := cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Access key-0 and key-1 to make them recently used
	cache.Get("key-0")
	cache.Get("key-1")

	if err := cache.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed for new key: %v", err)
	}

	for _, key := range []string{"key-0", "key-1", "key-new"} {
		if !cache.Contains(key) {
			t.Errorf("%s should still be cached", key)
		}
	}
	if cache.Contains("key-2") || cache.Contains("key-3") {
		t.Error("least recently used keys should be evicted")
	}
	if cache.Stats().Evictions != 2 {
		t.Errorf("expected 2 evictions, got %d", cache.Stats().Evictions)
	}
}

func TestMemoryCache_Compression(t *testing.T) {
	cache := NewMemoryCache(1 << 20)

	// Silence compresses well.
	clip := make([]byte, 64*1024)
	if err := cache.Put("silence", clip); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if cache.Size() >= int64(len(clip)) {
		t.Errorf("expected compressed size below %d, got %d", len(clip), cache.Size())
	}

	got, ok := cache.Get("silence")
	if !ok || !bytes.Equal(got, clip) {
		t.Error("compressed clip did not round-trip")
	}
}

func TestMemoryCache_ItemTooLarge(t *testing.T) {
	cache := NewMemoryCache(10)
	if err := cache.Put("big", []byte("this is more than ten bytes")); err != ErrItemTooLarge {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemoryCache_UpdateExisting(t *testing.T) {
	cache := NewMemoryCache(1024)
	cache.Put("k", []byte("short"))
	cache.Put("k", []byte("a longer value"))

	got, _ := cache.Get("k")
	if string(got) != "a longer value" {
		t.Errorf("got %q", got)
	}
	if cache.Size() != int64(len("a longer value")) {
		t.Errorf("size = %d", cache.Size())
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(1024)
	cache.Put("k", []byte("v"))
	cache.Get("k")
	cache.Get("k")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("hit rate = %f", stats.HitRate)
	}
	if stats.ItemCount != 1 {
		t.Errorf("item count = %d", stats.ItemCount)
	}
}

func TestMemoryCache_Prune(t *testing.T) {
	cache := NewMemoryCache(1024)
	cache.Put("old", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	cache.Put("new", []byte("v"))

	if n := cache.Prune(10 * time.Millisecond); n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if cache.Contains("old") || !cache.Contains("new") {
		t.Error("wrong entry pruned")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache(10 * 1024)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				cache.Put(key, []byte(key))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() > 10*1024 {
		t.Errorf("cache exceeded capacity: %d", cache.Size())
	}
}
