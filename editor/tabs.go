package editor

import "path/filepath"

// TabManager tracks open file buffers and which one is active.
// It is pure data management, no UI widget dependency.
type TabManager struct {
	buffers  []*Buffer
	active   int // index of active tab, or -1 if none
	onActive []func(int)
}

// NewTabManager creates a TabManager with no open buffers.
func NewTabManager() *TabManager {
	return &TabManager{
		active: -1,
	}
}

// OnActiveChange registers a listener invoked whenever the active tab
// changes, with the new index (-1 when the last tab closed).
func (tm *TabManager) OnActiveChange(fn func(int)) {
	tm.onActive = append(tm.onActive, fn)
}

func (tm *TabManager) setActive(index int) {
	if index == tm.active {
		return
	}
	tm.active = index
	for _, fn := range tm.onActive {
		fn(index)
	}
}

// IndexOf returns the tab index of the buffer with the given absolute path,
// or -1 when the file is not open.
func (tm *TabManager) IndexOf(path string) int {
	for i, buf := range tm.buffers {
		if buf.Path() == path {
			return i
		}
	}
	return -1
}

// Count returns the number of open buffers.
func (tm *TabManager) Count() int {
	return len(tm.buffers)
}

// Active returns the index of the active tab, or -1 if there are no open
// buffers.
func (tm *TabManager) Active() int {
	return tm.active
}

// ActiveBuffer returns the currently active buffer, or nil if there are no
// open buffers.
func (tm *TabManager) ActiveBuffer() *Buffer {
	if tm.active < 0 || tm.active >= len(tm.buffers) {
		return nil
	}
	return tm.buffers[tm.active]
}

// Buffer returns the buffer at the given index, or nil if the index is out
// of range.
func (tm *TabManager) Buffer(index int) *Buffer {
	if index < 0 || index >= len(tm.buffers) {
		return nil
	}
	return tm.buffers[index]
}

// Buffers returns all open buffers in tab order.
func (tm *TabManager) Buffers() []*Buffer {
	return tm.buffers
}

// NewUntitled creates a new empty, untitled buffer, appends it, sets it as
// the active tab, and returns its index.
func (tm *TabManager) NewUntitled() int {
	buf := NewBuffer()
	tm.buffers = append(tm.buffers, buf)
	tm.setActive(len(tm.buffers) - 1)
	return tm.active
}

// OpenFile opens the file at path. If a buffer with the same absolute path
// is already open, it switches to that buffer instead of opening a duplicate.
// The new (or existing) buffer is set as active. Returns the tab index and
// any error from opening the file.
func (tm *TabManager) OpenFile(path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return -1, err
	}

	// Check for an existing buffer with the same path.
	if i := tm.IndexOf(absPath); i >= 0 {
		tm.setActive(i)
		return i, nil
	}

	// Open into a new buffer.
	buf := NewBuffer()
	if err := buf.Open(absPath); err != nil {
		return -1, err
	}

	tm.buffers = append(tm.buffers, buf)
	tm.setActive(len(tm.buffers) - 1)
	return tm.active, nil
}

// SetActive switches the active tab to the given index. If the index is out
// of range, this is a no-op.
func (tm *TabManager) SetActive(index int) {
	if index < 0 || index >= len(tm.buffers) {
		return
	}
	tm.setActive(index)
}

// Close removes the buffer at the given index. If the index is out of range,
// this is a no-op. After removal the active index is adjusted:
//   - If the closed tab was before the active tab, active shifts down by one.
//   - If the closed tab was the active tab (or after it and active is now out
//     of range), active is clamped to the last valid index.
//   - If no buffers remain, active becomes -1.
func (tm *TabManager) Close(index int) {
	if index < 0 || index >= len(tm.buffers) {
		return
	}

	// Remove the buffer at index.
	tm.buffers = append(tm.buffers[:index], tm.buffers[index+1:]...)

	if len(tm.buffers) == 0 {
		tm.setActive(-1)
		return
	}

	if index < tm.active {
		// Closed a tab before the active one: shift active down.
		tm.setActive(tm.active - 1)
	} else if index == tm.active {
		// Closed the active tab: clamp to valid range.
		next := tm.active
		if next >= len(tm.buffers) {
			next = len(tm.buffers) - 1
		}
		// Same index but a different buffer now occupies it.
		tm.active = -1
		tm.setActive(next)
	}
	// If index > tm.active, active stays the same (still valid).
}
