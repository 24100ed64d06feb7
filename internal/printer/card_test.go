package printer

import (
	"strings"
	"testing"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/db"
)

func TestRenderCard(t *testing.T) {
	due := time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC)
	job := &db.Job{
		JobID:         "a1b2c3d4-0000-0000-0000-000000000000",
		Title:         "Buy milk",
		Description:   "2 liters of whole milk from the corner shop",
		Priority:      "high",
		Category:      "personal",
		EstimatedTime: "15m",
		DueDate:       &due,
		CreatedAt:     time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}

	card := RenderCard(job)

	for _, want := range []string{
		"BUY MILK",
		"#A1B2C3D4",
		"prio: high",
		"cat: personal",
		"est: 15m",
		"due: 2026-09-15 14:00",
		"2026-08-30",
	} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}

	for _, line := range strings.Split(card, "\n") {
		if len(line) > cardWidth {
			t.Errorf("line exceeds %d columns: %q", cardWidth, line)
		}
	}
}

func TestRenderCardMinimalJob(t *testing.T) {
	job := &db.Job{
		JobID:     "deadbeef-0000-0000-0000-000000000000",
		Title:     "Short",
		Priority:  "low",
		Category:  "other",
		CreatedAt: time.Now().UTC(),
	}

	card := RenderCard(job)

	if strings.Contains(card, "est:") || strings.Contains(card, "due:") {
		t.Errorf("absent optional fields must not print:\n%s", card)
	}
}

func TestWrapLongWords(t *testing.T) {
	lines := wrap(strings.Repeat("x", 70), 32)
	for _, line := range lines {
		if len(line) > 32 {
			t.Errorf("unbroken word not split: %q", line)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("a1b2c3d4-e5f6-0000-0000-000000000000"); got != "A1B2C3D4" {
		t.Errorf("want A1B2C3D4, got %s", got)
	}
	if got := ShortID("ab"); got != "AB" {
		t.Errorf("short input should pass through uppercased, got %s", got)
	}
}
