package sse

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-deadline:
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

func TestPublishEntry(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishEntry(EntryCreated, "abc")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: entry.created\n") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `data: {"id":"abc"}`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishReload_Throttled(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishReload("external change")
	b.PublishReload("external change")
	b.PublishEntry(EntryDeleted, "x")

	msgs := drain(ch, 100*time.Millisecond)
	reloads, entries := 0, 0
	for _, m := range msgs {
		switch {
		case strings.Contains(m, EntriesReloaded):
			reloads++
		case strings.Contains(m, EntryDeleted):
			entries++
		}
	}
	if reloads != 1 {
		t.Errorf("reload events = %d, want 1", reloads)
	}
	if entries != 1 {
		t.Errorf("entry events = %d, want 1 (never throttled)", entries)
	}
}

func TestPublishReload_AfterInterval(t *testing.T) {
	b := NewBroker(20 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishReload("first")
	time.Sleep(50 * time.Millisecond)
	b.PublishReload("second")

	if n := len(drain(ch, 100*time.Millisecond)); n != 2 {
		t.Errorf("reload events = %d, want 2", n)
	}
}

func TestServeHTTP_Streams(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	b.PublishEntry(EntryUpdated, "e1")

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "event: entry.updated\n" {
		t.Errorf("first line = %q", line)
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// 64-slot client buffer; the extra events must not block the loop.
	for i := 0; i < 70; i++ {
		b.PublishEntry(EntryUpdated, "x")
	}
	if b.ClientCount() != 1 {
		t.Fatal("broker loop stalled")
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
	b.PublishEntry(EntryUpdated, "x")
	b.PublishReload("late")
	b.Close()
}
