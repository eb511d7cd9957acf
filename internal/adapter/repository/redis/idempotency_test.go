package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_ReserveOnce(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "key", time.Minute)
	if err != nil || !reserved {
		t.Fatalf("expected first reserve to succeed, got reserved=%v err=%v", reserved, err)
	}

	reserved, err = store.Reserve(ctx, "key", time.Minute)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if reserved {
		t.Fatalf("expected second reserve to fail because key exists")
	}

	resp, found, err := store.Load(ctx, "key")
	if err != nil || !found || resp != nil {
		t.Fatalf("expected in-flight marker, got resp=%q found=%v err=%v", resp, found, err)
	}
}

func TestIdempotencyStore_StoreAndLoad(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "complete", time.Minute); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if err := store.Store(ctx, "complete", []byte("done"), time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	resp, found, err := store.Load(ctx, "complete")
	if err != nil || !found || string(resp) != "done" {
		t.Fatalf("expected stored response, got resp=%q found=%v err=%v", resp, found, err)
	}

	val, err := client.Get(ctx, store.prefix+"complete").Result()
	if err != nil || val != "done" {
		t.Fatalf("expected raw value under prefix, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_Release(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "failed", time.Minute); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if err := store.Release(ctx, "failed"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if _, found, _ := store.Load(ctx, "failed"); found {
		t.Fatalf("expected released key to be gone")
	}

	reserved, err := store.Reserve(ctx, "failed", time.Minute)
	if err != nil || !reserved {
		t.Fatalf("expected key to be reservable again, got reserved=%v err=%v", reserved, err)
	}
}

func TestIdempotencyStore_Expires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "short", time.Second); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, found, _ := store.Load(ctx, "short"); found {
		t.Fatalf("expected reservation to expire")
	}
}
