package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	return New(mr.Addr(), "", 0)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || val != "v" {
		t.Fatalf("got %q, %v", val, ok)
	}
}

func TestGetMissingKeyReturnsFalse(t *testing.T) {
	c := newTestCache(t)
	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing key")
	}
}

func TestLockPreventsConcurrentAcquisition(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := AccountLockKey("acc-1")

	acquired, err := c.Lock(ctx, key, time.Minute)
	if err != nil || !acquired {
		t.Fatalf("expected first lock to succeed: %v %v", acquired, err)
	}

	acquired2, err := c.Lock(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if acquired2 {
		t.Fatal("expected second lock attempt to fail while held")
	}

	if err := c.Unlock(ctx, key); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	acquired3, err := c.Lock(ctx, key, time.Minute)
	if err != nil || !acquired3 {
		t.Fatalf("expected lock to succeed after unlock: %v %v", acquired3, err)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, "k", "v", time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, _ := c.Get(ctx, "k")
	if ok {
		t.Fatal("expected key to be gone after Delete")
	}
}
