package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	params := map[string]string{"limit": "200"}
	c.Set("owner/repo", "commits", params, []string{"a", "b"}, time.Minute)

	value, ok := c.Get("owner/repo", "commits", params)
	if !ok {
		t.Fatal("expected cache hit, got miss")
	}
	got, ok := value.([]string)
	if !ok || len(got) != 2 {
		t.Errorf("expected cached value [a b], got %v", value)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := New()

	if _, ok := c.Get("owner/repo", "commits", nil); ok {
		t.Error("expected miss for unknown key, got hit")
	}
}

func TestCache_ExpiryTreatedAsAbsent(t *testing.T) {
	now := time.Now()
	c := NewWithClock(func() time.Time { return now })

	c.Set("owner/repo", "commits", nil, "value", 10*time.Second)

	if _, ok := c.Get("owner/repo", "commits", nil); !ok {
		t.Fatal("expected hit before expiry")
	}

	// Advance exactly to the expiry boundary: now >= expires_at means absent.
	now = now.Add(10 * time.Second)
	if _, ok := c.Get("owner/repo", "commits", nil); ok {
		t.Error("expected miss at expiry boundary, got hit")
	}

	// Expired entry must have been purged on lookup.
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be purged, %d entries remain", c.Len())
	}
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New()

	c.Set("owner/repo", "commits", nil, "old", time.Minute)
	c.Set("owner/repo", "commits", nil, "new", time.Minute)

	value, ok := c.Get("owner/repo", "commits", nil)
	if !ok {
		t.Fatal("expected hit")
	}
	if value != "new" {
		t.Errorf("expected overwritten value 'new', got %v", value)
	}
	if c.Len() != 1 {
		t.Errorf("expected a single entry after overwrite, got %d", c.Len())
	}
}

func TestKey_DeterministicAcrossParamOrder(t *testing.T) {
	// Maps do not guarantee iteration order, so build the same logical
	// params several times and in reverse insertion order.
	base := Key("owner/repo", "issues", map[string]string{
		"limit": "100", "state": "all", "page": "1",
	})

	for i := 0; i < 50; i++ {
		params := map[string]string{}
		params["page"] = "1"
		params["state"] = "all"
		params["limit"] = "100"
		if got := Key("owner/repo", "issues", params); got != base {
			t.Fatalf("key not deterministic: %s != %s", got, base)
		}
	}
}

func TestKey_DistinguishesContent(t *testing.T) {
	a := Key("owner/repo", "commits", map[string]string{"limit": "100"})
	b := Key("owner/repo", "commits", map[string]string{"limit": "200"})
	c := Key("owner/repo", "issues", map[string]string{"limit": "100"})
	d := Key("other/repo", "commits", map[string]string{"limit": "100"})

	keys := map[string]bool{a: true, b: true, c: true, d: true}
	if len(keys) != 4 {
		t.Errorf("expected 4 distinct keys, got %d", len(keys))
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			params := map[string]string{"n": string(rune('a' + n%5))}
			c.Set("owner/repo", "commits", params, n, time.Minute)
			c.Get("owner/repo", "commits", params)
		}(i)
	}
	wg.Wait()

	if c.Len() == 0 {
		t.Error("expected entries after concurrent writes")
	}
}
