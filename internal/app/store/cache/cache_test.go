package cache

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
)

// fakeClock drives the cache's view of time without sleeps.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time              { return f.t }
func (f *fakeClock) Advance(d time.Duration)     { f.t = f.t.Add(d) }
func newFakeClock() *fakeClock                   { return &fakeClock{t: time.Unix(1700000000, 0)} }
func docsOf(t *testing.T, names ...string) []bson.Raw {
	t.Helper()
	out := make([]bson.Raw, 0, len(names))
	for _, n := range names {
		raw, err := bson.Marshal(bson.M{"name": n})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out = append(out, raw)
	}
	return out
}

func TestGet_MissOnEmpty(t *testing.T) {
	c := New(DefaultTTL, newFakeClock().Now)
	if _, ok := c.Get("users|||50"); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestSetGet_Hit(t *testing.T) {
	clk := newFakeClock()
	c := New(DefaultTTL, clk.Now)

	docs := docsOf(t, "a", "b")
	c.Set("users|||50", docs)

	got, ok := c.Get("users|||50")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != 2 {
		t.Errorf("got %d docs, want 2", len(got))
	}
}

func TestGet_TTLExpiry(t *testing.T) {
	clk := newFakeClock()
	c := New(5*time.Minute, clk.Now)

	c.Set("users|||50", docsOf(t, "a"))

	clk.Advance(5*time.Minute - time.Second)
	if _, ok := c.Get("users|||50"); !ok {
		t.Error("entry inside TTL must hit")
	}

	clk.Advance(time.Second)
	if _, ok := c.Get("users|||50"); ok {
		t.Error("entry at exactly TTL must miss")
	}

	// Expired entry must also be evicted, not just skipped.
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestInvalidate_CollectionPrefix(t *testing.T) {
	clk := newFakeClock()
	c := New(DefaultTTL, clk.Now)

	c.Set("users|role=student||50", docsOf(t, "a"))
	c.Set("users|||50", docsOf(t, "b"))
	c.Set("courses|||50", docsOf(t, "c"))

	c.Invalidate("users")

	if _, ok := c.Get("users|role=student||50"); ok {
		t.Error("users entries must be purged")
	}
	if _, ok := c.Get("users|||50"); ok {
		t.Error("users entries must be purged")
	}
	if _, ok := c.Get("courses|||50"); !ok {
		t.Error("courses entry must survive users invalidation")
	}
}

func TestInvalidate_NoFalsePrefixMatch(t *testing.T) {
	clk := newFakeClock()
	c := New(DefaultTTL, clk.Now)

	c.Set("users|||50", docsOf(t, "a"))
	c.Set("users_archive|||50", docsOf(t, "b"))

	c.Invalidate("users")

	if _, ok := c.Get("users_archive|||50"); !ok {
		t.Error("invalidate must match the collection segment, not a raw prefix")
	}
}

func TestInvalidateAll(t *testing.T) {
	clk := newFakeClock()
	c := New(DefaultTTL, clk.Now)

	c.Set("users|||50", docsOf(t, "a"))
	c.Set("courses|||50", docsOf(t, "b"))

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestKey_Deterministic(t *testing.T) {
	q1 := docstore.Query{
		Filters: []docstore.Filter{
			{Field: "role", Value: "student"},
			{Field: "organization_id", Value: "org-1"},
		},
		Limit: 25,
	}
	q2 := docstore.Query{
		Filters: []docstore.Filter{
			{Field: "organization_id", Value: "org-1"},
			{Field: "role", Value: "student"},
		},
		Limit: 25,
	}
	if Key("users", q1) != Key("users", q2) {
		t.Error("filter order must not change the key")
	}
}

func TestKey_DistinguishesQueries(t *testing.T) {
	base := docstore.Query{Filters: []docstore.Filter{{Field: "role", Value: "student"}}}

	other := base
	other.Filters = []docstore.Filter{{Field: "role", Value: "teacher"}}
	if Key("users", base) == Key("users", other) {
		t.Error("different filter values must produce different keys")
	}

	limited := base
	limited.Limit = 10
	if Key("users", base) == Key("users", limited) {
		t.Error("different limits must produce different keys")
	}

	ordered := base
	ordered.Order = &docstore.Order{Field: "name_ci", Desc: true}
	if Key("users", base) == Key("users", ordered) {
		t.Error("ordering must be part of the key")
	}

	if Key("users", base) == Key("payments", base) {
		t.Error("collection must be part of the key")
	}
}

func TestKey_DefaultLimitShared(t *testing.T) {
	// Limit 0 and the explicit default cap are the same query.
	q0 := docstore.Query{}
	q50 := docstore.Query{Limit: docstore.DefaultLimit}
	if Key("users", q0) != Key("users", q50) {
		t.Error("unset limit must share a key with the explicit default cap")
	}
}

func TestSet_RefreshRestartsTTL(t *testing.T) {
	clk := newFakeClock()
	c := New(5*time.Minute, clk.Now)

	c.Set("users|||50", docsOf(t, "a"))
	clk.Advance(4 * time.Minute)
	c.Set("users|||50", docsOf(t, "b"))
	clk.Advance(4 * time.Minute)

	got, ok := c.Get("users|||50")
	if !ok {
		t.Fatal("refreshed entry should still be live")
	}
	var doc bson.M
	if err := bson.Unmarshal(got[0], &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["name"] != "b" {
		t.Errorf("expected refreshed value, got %v", doc["name"])
	}
}
