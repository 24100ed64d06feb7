package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/config"
	"github.com/webgeeksai/print-service-mcp/internal/db"
)

var (
	ErrPrinterOffline   = errors.New("printer is offline")
	ErrConnectionFailed = errors.New("connection failed")
)

const defaultReadWriteTimeout = 10 * time.Second

// CardPrinter renders a task card and transmits it to the thermal printer
// over TCP. One connection per job; the device cannot handle interleaved
// data, which is why only the single worker ever calls Print.
type CardPrinter struct {
	address string
	timeout time.Duration
}

func NewCardPrinter(cfg *config.PrinterConfig) *CardPrinter {
	timeout := cfg.ConnectionTimeout
	if timeout == 0 {
		timeout = defaultReadWriteTimeout
	}
	return &CardPrinter{
		address: net.JoinHostPort(cfg.Address, fmt.Sprintf("%d", cfg.Port)),
		timeout: timeout,
	}
}

func (p *CardPrinter) Print(ctx context.Context, job *db.Job) error {
	card := RenderCard(job)

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrinterOffline, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(card)); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	// Feed past the tear bar so the card can be torn off cleanly.
	if _, err := conn.Write([]byte("\n\n\n\n")); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return nil
}

// Simulator stands in for the physical printer in dry runs and tests. It
// logs the card and sleeps a synthetic, priority-dependent delay before
// reporting success.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

var simulatedDelays = map[string]time.Duration{
	"high":   2 * time.Second,
	"medium": 3 * time.Second,
	"low":    4 * time.Second,
}

func (s *Simulator) Print(ctx context.Context, job *db.Job) error {
	delay, ok := simulatedDelays[job.Priority]
	if !ok {
		delay = 3 * time.Second
	}

	log.Printf("printer: SIMULATING job %s: %s", job.JobID, job.Title)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Printf("printer: simulation complete for job %s\n%s", job.JobID, RenderCard(job))
	return nil
}
