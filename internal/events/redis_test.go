package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisPublisher_Publish(t *testing.T) {
	_, client := newTestRedis(t)
	p := NewRedisPublisher(client, "notify:events")

	ctx := context.Background()
	ev := Event{
		Status:         StatusDelivered,
		MessageID:      "msg-1",
		TemplateID:     "new_review",
		RecipientCount: 1,
		OccurredAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	id, err := p.Publish(ctx, ev)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if id == "" {
		t.Error("expected stream entry id")
	}

	entries, err := client.XRange(ctx, "notify:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	raw, ok := entries[0].Values["data"].(string)
	if !ok {
		t.Fatalf("data field missing: %v", entries[0].Values)
	}
	var got Event
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != StatusDelivered || got.MessageID != "msg-1" || got.TemplateID != "new_review" {
		t.Errorf("event = %+v", got)
	}
}

func TestRedisPublisher_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	p := NewRedisPublisher(client, "notify:events")
	mr.Close()

	if _, err := p.Publish(context.Background(), Event{Status: StatusFailed}); err == nil {
		t.Fatal("expected error when redis is unavailable")
	}
}
