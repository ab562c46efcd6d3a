package cache

import (
	"testing"
	"time"

	"github.com/stockgpt/stockgpt/internal/models"
)

func TestGetReturnsStoredQuoteWithinTTL(t *testing.T) {
	c := NewQuoteCache(30*time.Second, true)

	key := Key("SENSEX", "5d", "1h")
	q := models.Quote{Symbol: "SENSEX", CurrentPrice: 75123.45, Status: models.StatusSuccess}
	c.Put(key, q)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.CurrentPrice != q.CurrentPrice || got.Status != q.Status {
		t.Errorf("cached quote mutated: %+v", got)
	}
}

func TestGetExpiresAtTTL(t *testing.T) {
	c := NewQuoteCache(30*time.Second, true)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put(Key("NIFTY50", "5d", "1h"), models.Quote{Symbol: "NIFTY50"})

	// One nanosecond short of the TTL is still a hit.
	c.now = func() time.Time { return now.Add(30*time.Second - time.Nanosecond) }
	if _, ok := c.Get(Key("NIFTY50", "5d", "1h")); !ok {
		t.Error("expected hit just before TTL")
	}

	// Age == TTL counts as absent.
	c.now = func() time.Time { return now.Add(30 * time.Second) }
	if _, ok := c.Get(Key("NIFTY50", "5d", "1h")); ok {
		t.Error("expected miss at TTL boundary")
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	c := NewQuoteCache(30*time.Second, true)
	if _, ok := c.Get(Key("RELIANCE", "1mo", "1d")); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestDisabledCacheNeverHits(t *testing.T) {
	c := NewQuoteCache(30*time.Second, false)
	key := Key("SENSEX", "5d", "1h")
	c.Put(key, models.Quote{Symbol: "SENSEX"})
	if _, ok := c.Get(key); ok {
		t.Error("disabled cache must not return hits")
	}
	if c.Len() != 0 {
		t.Error("disabled cache must not store entries")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := NewQuoteCache(30*time.Second, true)
	key := Key("SENSEX", "5d", "1h")

	c.Put(key, models.Quote{CurrentPrice: 1, Status: models.StatusMockData})
	c.Put(key, models.Quote{CurrentPrice: 2, Status: models.StatusSuccess})

	got, ok := c.Get(key)
	if !ok || got.CurrentPrice != 2 || got.Status != models.StatusSuccess {
		t.Errorf("expected overwritten entry, got %+v ok=%v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected single entry, got %d", c.Len())
	}
}
