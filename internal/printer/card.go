package printer

import (
	"strings"
	"time"

	"github.com/webgeeksai/print-service-mcp/internal/db"
)

// The print head is 384 dots wide; at the device's 12-dot monospaced glyphs
// that gives 32 printable columns per line.
const cardWidth = 32

var priorityMarks = map[string]string{
	"high":   "!!!",
	"medium": " !!",
	"low":    "  !",
}

// RenderCard lays out a task as monospaced card text ready for the device.
func RenderCard(job *db.Job) string {
	var b strings.Builder

	rule := strings.Repeat("=", cardWidth)
	thin := strings.Repeat("-", cardWidth)

	b.WriteString(rule + "\n")
	for _, line := range wrap(strings.ToUpper(job.Title), cardWidth) {
		b.WriteString(line + "\n")
	}
	b.WriteString(thin + "\n")

	b.WriteString("#" + ShortID(job.JobID))
	mark := priorityMarks[job.Priority]
	if mark != "" {
		b.WriteString(strings.Repeat(" ", cardWidth-len(ShortID(job.JobID))-1-len(mark)) + mark)
	}
	b.WriteString("\n")

	b.WriteString(pad("prio: "+job.Priority, "cat: "+job.Category) + "\n")

	if job.Description != "" {
		b.WriteString(thin + "\n")
		for _, line := range wrap(job.Description, cardWidth) {
			b.WriteString(line + "\n")
		}
	}

	if job.EstimatedTime != "" {
		b.WriteString("est: " + job.EstimatedTime + "\n")
	}
	if job.DueDate != nil {
		b.WriteString("due: " + job.DueDate.Format("2006-01-02 15:04") + "\n")
	}

	b.WriteString(thin + "\n")
	b.WriteString(job.CreatedAt.Format(time.DateOnly) + "\n")
	b.WriteString(rule + "\n")

	return b.String()
}

// ShortID is the human-readable job reference printed on the card.
func ShortID(jobID string) string {
	if len(jobID) < 8 {
		return strings.ToUpper(jobID)
	}
	return strings.ToUpper(jobID[:8])
}

func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for len(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, word[:width])
				word = word[width:]
			}
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func pad(left, right string) string {
	gap := cardWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
