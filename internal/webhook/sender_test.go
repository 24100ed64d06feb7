package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/db"
)

func testSenderJob() *db.Job {
	return &db.Job{
		JobID:    "job-1",
		Title:    "Buy milk",
		Status:   "completed",
		Priority: "high",
		Category: "other",
	}
}

func TestSendJobEventDelivers(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- body
	}))
	defer srv.Close()

	s := NewSender([]config.WebhookConfig{{
		Name:   "test",
		URL:    srv.URL,
		Secret: "hunter2",
		Events: []string{EventJobCompleted},
	}})
	s.Start()
	defer s.Stop()

	s.SendJobEvent(EventJobCompleted, testSenderJob(), "")

	select {
	case req := <-received:
		if req.Header.Get("X-Webhook-Event") != EventJobCompleted {
			t.Errorf("event header: %q", req.Header.Get("X-Webhook-Event"))
		}

		var payload Payload
		if err := json.Unmarshal(<-bodies, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Event != EventJobCompleted {
			t.Errorf("payload event: %q", payload.Event)
		}
		if payload.Signature == "" {
			t.Error("payload must be signed when a secret is set")
		}

		dataBytes, _ := json.Marshal(payload.Data)
		mac := hmac.New(sha256.New, []byte("hunter2"))
		mac.Write(dataBytes)
		if payload.Signature != hex.EncodeToString(mac.Sum(nil)) {
			t.Error("signature does not verify against the payload data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestSendJobEventFiltersBySubscription(t *testing.T) {
	hits := make(chan string, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.Header.Get("X-Webhook-Event")
	}))
	defer srv.Close()

	s := NewSender([]config.WebhookConfig{{
		Name:   "failures-only",
		URL:    srv.URL,
		Events: []string{EventJobFailed},
	}})
	s.Start()
	defer s.Stop()

	s.SendJobEvent(EventJobCompleted, testSenderJob(), "")
	s.SendJobEvent(EventJobFailed, testSenderJob(), "printer offline")

	select {
	case event := <-hits:
		if event != EventJobFailed {
			t.Errorf("unsubscribed event delivered: %q", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed event was never delivered")
	}

	select {
	case event := <-hits:
		t.Errorf("unexpected extra delivery: %q", event)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var count int
	countCh := make(chan int, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		countCh <- count
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSender([]config.WebhookConfig{{Name: "reject", URL: srv.URL}})
	s.retryDelay = 10 * time.Millisecond
	s.Start()
	defer s.Stop()

	s.SendJobEvent(EventJobCompleted, testSenderJob(), "")

	select {
	case <-countCh:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never attempted")
	}

	select {
	case n := <-countCh:
		t.Errorf("4xx response retried, attempt %d", n)
	case <-time.After(300 * time.Millisecond):
	}
}
