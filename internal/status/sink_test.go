package status

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_AppendPreservesOrder(t *testing.T) {
	s := New(nil)
	s.Append("first")
	s.Append("second")
	s.Append("third")

	assert.Equal(t, []string{"first", "second", "third"}, s.Lines())
	assert.Equal(t, "first\nsecond\nthird", s.Text())
	assert.Equal(t, 3, s.Len())
}

func TestSink_LinesReturnsCopy(t *testing.T) {
	s := New(nil)
	s.Append("a")

	lines := s.Lines()
	lines[0] = "mutated"

	assert.Equal(t, []string{"a"}, s.Lines())
}

func TestSink_SlotsAreOverwritten(t *testing.T) {
	s := New(nil)

	s.SetActivity("Scanning packages...")
	s.SetActivity("Uninstalling...")
	s.SetUpdateMessage("Checking updates...")
	s.SetUpdateMessage("New version 2.1.0 available.")

	assert.Equal(t, "Uninstalling...", s.Activity())
	assert.Equal(t, "New version 2.1.0 available.", s.UpdateMessage())
	assert.Empty(t, s.Lines(), "slot writes must not touch the log")
}

func TestSink_ConcurrentAppendKeepsWholeLines(t *testing.T) {
	s := New(nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append(fmt.Sprintf("worker-%d line-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	lines := s.Lines()
	require.Len(t, lines, 400)

	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		seen[l] = true
	}
	assert.Len(t, seen, 400)
}

func TestSink_Subscribe(t *testing.T) {
	s := New(nil)

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.SetActivity("Scanning packages...")
	s.Append("Found 3 packages")
	s.SetUpdateMessage("You are using the latest version.")

	require.Len(t, events, 3)
	assert.Equal(t, Event{Kind: ActivityChanged, Text: "Scanning packages..."}, events[0])
	assert.Equal(t, Event{Kind: LineAppended, Text: "Found 3 packages"}, events[1])
	assert.Equal(t, Event{Kind: UpdateMessageChanged, Text: "You are using the latest version."}, events[2])
}
