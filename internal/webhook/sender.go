package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/db"
)

const (
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID        string `json:"job_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	Category     string `json:"category"`
	ErrorMessage string `json:"error_message,omitempty"`
	RetryCount   int    `json:"retry_count,omitempty"`
}

type task struct {
	endpoint config.WebhookConfig
	payload  *Payload
	attempt  int
}

// Sender delivers job lifecycle events to configured endpoints. Deliveries
// run on their own goroutines with bounded retries; failures only ever log,
// they can never reach the worker loop.
type Sender struct {
	endpoints  []config.WebhookConfig
	httpClient *http.Client
	retryCount int
	retryDelay time.Duration
	queue      chan *task
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewSender(endpoints []config.WebhookConfig) *Sender {
	return &Sender{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryCount: 3,
		retryDelay: 5 * time.Second,
		queue:      make(chan *task, 100),
		stopCh:     make(chan struct{}),
	}
}

func (s *Sender) Start() {
	for i := 0; i < 2; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// SendJobEvent implements the worker's Notifier contract. It fans the event
// out to every endpoint subscribed to it and returns immediately.
func (s *Sender) SendJobEvent(event string, job *db.Job, errorMsg string) {
	data := &JobEventData{
		JobID:        job.JobID,
		Title:        job.Title,
		Status:       job.Status,
		Priority:     job.Priority,
		Category:     job.Category,
		ErrorMessage: errorMsg,
		RetryCount:   job.RetryCount,
	}

	for _, endpoint := range s.endpoints {
		if !subscribed(endpoint, event) {
			continue
		}

		t := &task{
			endpoint: endpoint,
			payload: &Payload{
				Event:     event,
				Timestamp: time.Now().UTC(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			log.Printf("[webhook] queue full, dropping %s for %s", event, endpoint.Name)
		}
	}
}

func subscribed(endpoint config.WebhookConfig, event string) bool {
	if len(endpoint.Events) == 0 {
		return true
	}
	for _, e := range endpoint.Events {
		if e == event {
			return true
		}
	}
	return false
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				log.Printf("[webhook worker %d] failed to send %s to %s after %d attempts: %v",
					id, t.payload.Event, t.endpoint.Name, t.attempt, err)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		if isClientError(err) {
			log.Printf("[webhook] client error for %s, not retrying: %v", t.endpoint.Name, err)
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(endpoint config.WebhookConfig, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if endpoint.Secret != "" {
		payload.Signature = signPayload(dataBytes, endpoint.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
