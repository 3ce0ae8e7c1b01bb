package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	redisad "safari_quote/internal/adapters/redis"
	"safari_quote/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTripQuotes(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	in := []domain.HotelQuote{{
		Tier:              2,
		AccommodationName: "Serena",
		RoomType:          domain.RoomDouble,
		RoomCount:         1,
		BaseRate:          decimal.RequireFromString("100"),
		Surcharge:         decimal.RequireFromString("25"),
		FinalRate:         decimal.RequireFromString("125"),
		TotalPrice:        decimal.RequireFromString("125"),
		ChildSurcharge:    true,
	}}
	if err := c.Set(ctx, "quote:k1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("safari:quote:k1") {
		t.Fatalf("expected prefixed key in redis, have %v", mr.Keys())
	}

	var out []domain.HotelQuote
	ok, err := c.Get(ctx, "quote:k1", &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || !out[0].FinalRate.Equal(in[0].FinalRate) || out[0].RoomType != domain.RoomDouble {
		t.Fatalf("unexpected cached value: %+v", out)
	}
}

func TestCache_MissAndExpiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var out []domain.HotelQuote
	if ok, err := c.Get(ctx, "absent", &out); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "short", []int{1}, 5); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(6 * time.Second)
	var got []int
	if ok, _ := c.Get(ctx, "short", &got); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_Del(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 60)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var s string
	if ok, _ := c.Get(ctx, "k", &s); ok {
		t.Fatalf("expected miss after delete")
	}
}
