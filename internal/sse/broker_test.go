package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

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

	b.Publish(Event{Type: DatesUpdated, Data: map[string]string{"session": "s1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: dates.updated\n") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"session":"s1"`) || !strings.HasSuffix(s, "\n\n") {
			t.Errorf("bad frame %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishDocumentEvent_VaultThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent(DocumentTransformed, DocumentEvent{Path: "a.md", Command: "explode"})
	b.PublishDocumentEvent(DocumentUpdated, DocumentEvent{Path: "b.md"})

	var msgs []string
	deadline := time.After(time.Second)
	for len(msgs) < 3 {
		select {
		case msg := <-ch:
			msgs = append(msgs, string(msg))
		case <-deadline:
			t.Fatalf("timeout, got %q", msgs)
		}
	}
	time.Sleep(50 * time.Millisecond)
	msgs = append(msgs, drain(ch)...)

	var vault, docs int
	for _, s := range msgs {
		if strings.Contains(s, VaultUpdated) {
			vault++
		} else {
			docs++
		}
	}
	if docs != 2 {
		t.Errorf("document events = %d, want 2", docs)
	}
	if vault != 1 {
		t.Errorf("vault events = %d, want 1 (throttled)", vault)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler did not subscribe")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.PublishDocumentEvent(DocumentUpdated, DocumentEvent{Path: "x.md"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: document.updated") || !strings.Contains(body, `"path":"x.md"`) {
		t.Errorf("handler output missing event: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Capacity is 64; overflowing must not block the loop.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	if b.ClientCount() != 1 {
		t.Error("broker stalled")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// No-ops after close.
	b.Publish(Event{Type: DocumentUpdated})
	b.PublishDocumentEvent(DocumentUpdated, DocumentEvent{Path: "x.md"})
	b.Close()
}
