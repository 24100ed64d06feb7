package core

import (
	"context"
	"log"
	"time"
)

// Health runs retention cleanup and liveness reporting alongside the worker.
// Nothing in here may take the process down: every failure is logged and the
// loop keeps going.
type Health struct {
	queue           *Queue
	checkInterval   time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	stopCh          chan struct{}
	done            chan struct{}
}

func NewHealth(queue *Queue, cleanupInterval time.Duration) *Health {
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	return &Health{
		queue:           queue,
		checkInterval:   5 * time.Minute,
		cleanupInterval: cleanupInterval,
		lastCleanup:     time.Now(),
		stopCh:          make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (h *Health) Start() {
	go h.run()
}

func (h *Health) Stop() {
	close(h.stopCh)
	<-h.done
}

func (h *Health) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.check()
		}
	}
}

func (h *Health) check() {
	ctx := context.Background()

	if time.Since(h.lastCleanup) > h.cleanupInterval {
		deleted, err := h.queue.Cleanup(ctx)
		if err != nil {
			log.Printf("health: cleanup failed: %v", err)
		} else {
			log.Printf("health: cleaned up %d old jobs", deleted)
			h.lastCleanup = time.Now()
		}
		return
	}

	stats, err := h.queue.Stats(ctx)
	if err != nil {
		log.Printf("health: failed to read stats: %v", err)
		return
	}

	waiting := stats.Pending + stats.Retry
	if waiting > 0 {
		log.Printf("health: %d jobs waiting, %d processing", waiting, stats.Processing)
	}
}
