package loader

import "fmt"

// ProgressStatus is the state a ProgressEvent reports.
type ProgressStatus int

const (
	ProgressDiscovered ProgressStatus = iota // Total is set; no File
	ProgressComplete
	ProgressFailed
)

// ProgressEvent reports load progress to an OnProgress callback.
type ProgressEvent struct {
	File    string
	Status  ProgressStatus
	Message string
	Total   int
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressDiscovered:
		return fmt.Sprintf("  ○ %d files queued", event.Total)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s", event.File)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.File, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.File)
	}
}
