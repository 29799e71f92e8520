package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/vardeps/internal/loader"
)

func TestTracker_CountsFailures(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, "loading")

	tr.Observe(loader.ProgressEvent{Status: loader.ProgressDiscovered, Total: 3})
	tr.Observe(loader.ProgressEvent{File: "a.py", Status: loader.ProgressComplete})
	tr.Observe(loader.ProgressEvent{File: "b.py", Status: loader.ProgressFailed, Message: "syntax"})
	tr.Observe(loader.ProgressEvent{File: "c.py", Status: loader.ProgressComplete})
	tr.Finish()

	assert.Contains(t, buf.String(), "loading: 1 file(s) skipped")
}

func TestTracker_EventsBeforeDiscoveryAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, "loading")

	tr.Observe(loader.ProgressEvent{File: "a.py", Status: loader.ProgressComplete})
	tr.Finish()

	assert.Empty(t, buf.String())
}
