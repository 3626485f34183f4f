// Package tui provides a Bubble Tea terminal UI for the skirmish combat engine.
package tui

// History is a bounded command history with cursor-based navigation. The
// line being typed when navigation starts is kept as a draft and given
// back when the cursor moves past the newest entry.
type History struct {
	entries []string
	max     int
	cursor  int // -1 = not navigating, 0..len-1 = position in entries
	draft   string
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push adds a command to history. Consecutive duplicates are skipped.
func (h *History) Push(cmd string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	if len(h.entries) == h.max {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.max-1]
	}
	h.entries = append(h.entries, cmd)
}

// Len returns the number of stored commands.
func (h *History) Len() int {
	return len(h.entries)
}

// Prev returns the previous (older) entry. current is the line being typed
// and is saved as the draft when navigation starts.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.draft = current
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next returns the next (newer) entry. Past the newest entry it returns
// the draft and false.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return h.draft, false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return h.draft, false
	}
	return h.entries[h.cursor], true
}

// ResetCursor stops navigating and drops the draft.
func (h *History) ResetCursor() {
	h.cursor = -1
	h.draft = ""
}
