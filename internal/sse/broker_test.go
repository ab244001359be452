package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventNotesMoved, Data: map[string]string{"from": "a.md", "to": "b.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: "+EventNotesMoved) {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"from":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishVaultChangedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change broadcasts; the immediate second one is throttled.
	b.PublishVaultChanged("a.md", 2)
	b.PublishVaultChanged("b.md", 2)

	time.Sleep(50 * time.Millisecond)
	count := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), EventVaultChanged) {
				count++
			}
		default:
			break loop
		}
	}

	if count != 1 {
		t.Errorf("vault.changed events = %d, want 1 (throttled)", count)
	}
}

func TestVaultChangedCarriesBrokenCount(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishVaultChanged("Notes/a.md", 7)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, `"broken_links":7`) {
			t.Errorf("missing broken count in %q", s)
		}
		if !strings.Contains(s, `"path":"Notes/a.md"`) {
			t.Errorf("missing path in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: EventLinksFixed, Data: map[string]string{"source": "x"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, ": connected") {
		t.Error("missing connection preamble")
	}
	if !strings.Contains(body, "event: "+EventLinksFixed) {
		t.Errorf("missing event in body %q", body)
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	b.Close()
	// Must not panic or block.
	b.Publish(Event{Type: EventNotesMoved})
	b.PublishVaultChanged("a.md", 0)
	if b.ClientCount() != 0 {
		t.Error("closed broker should report 0 clients")
	}
	ch := b.Subscribe()
	if _, ok := <-ch; ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
