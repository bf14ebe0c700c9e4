package events

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	t.Run("subscriber_receives_published_event", func(t *testing.T) {
		b := NewBus(64)
		ch, cancel := b.Subscribe(Filter{})
		defer cancel()

		b.Publish("report.completed", map[string]string{"report_id": "abc"})

		select {
		case evt := <-ch:
			if evt.Type != "report.completed" {
				t.Errorf("Type = %q, want report.completed", evt.Type)
			}
			if evt.ID == "" {
				t.Error("expected non-empty event ID")
			}
			var payload map[string]string
			if err := json.Unmarshal(evt.Data, &payload); err != nil {
				t.Fatalf("Data is not valid JSON: %v", err)
			}
			if payload["report_id"] != "abc" {
				t.Errorf("payload report_id = %q, want abc", payload["report_id"])
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("filtered_subscriber_misses_non_matching", func(t *testing.T) {
		b := NewBus(64)
		ch, cancel := b.Subscribe(Filter{Types: []string{"report.degraded"}})
		defer cancel()

		b.Publish("report.completed", "x")

		select {
		case evt := <-ch:
			t.Fatalf("should not receive event, got %+v", evt)
		case <-time.After(50 * time.Millisecond):
			// expected
		}
	})

	t.Run("cancel_stops_delivery", func(t *testing.T) {
		b := NewBus(64)
		ch, cancel := b.Subscribe(Filter{})
		cancel()

		b.Publish("report.completed", "x")

		select {
		case _, ok := <-ch:
			if ok {
				t.Fatal("should not receive event after cancel")
			}
		case <-time.After(50 * time.Millisecond):
			// expected — channel not closed, just removed from map
		}
	})
}

func TestBusReplaySince(t *testing.T) {
	b := NewBus(8)

	var ids []string
	for i := 0; i < 5; i++ {
		b.Publish("report.completed", map[string]int{"n": i})
	}
	all := b.ReplaySince("", Filter{})
	if len(all) != 5 {
		t.Fatalf("replay all = %d events, want 5", len(all))
	}
	for _, e := range all {
		ids = append(ids, e.ID)
	}

	tail := b.ReplaySince(ids[2], Filter{})
	if len(tail) != 2 {
		t.Fatalf("replay since %s = %d events, want 2", ids[2], len(tail))
	}
	if tail[0].ID != ids[3] || tail[1].ID != ids[4] {
		t.Errorf("replay returned wrong events: %v", tail)
	}
}

func TestBusRingOverwrite(t *testing.T) {
	b := NewBus(4)
	for i := 0; i < 10; i++ {
		b.Publish("report.completed", fmt.Sprintf("payload-%d", i))
	}
	all := b.ReplaySince("", Filter{})
	if len(all) != 4 {
		t.Errorf("replay = %d events, want ring size 4", len(all))
	}
}
