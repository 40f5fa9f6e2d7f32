package feature

import (
	"fmt"

	"github.com/oytunturk/crank/algorithms/windowing"
)

// WindowTable holds the analysis windows for every configured type,
// built once and shared read-only across extractions. The hann window
// is mandatory because the primary filterbank, energy, and diagnostic
// reconstruction all run on it.
type WindowTable struct {
	order   []string
	windows map[string]*windowing.Window
}

// NewWindowTable builds one window of the given size per type name.
func NewWindowTable(types []string, size int) (*WindowTable, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("no window types configured")
	}

	wt := &WindowTable{
		order:   make([]string, 0, len(types)),
		windows: make(map[string]*windowing.Window, len(types)),
	}

	for _, name := range types {
		if _, dup := wt.windows[name]; dup {
			return nil, fmt.Errorf("duplicate window type: %s", name)
		}
		win, err := windowing.Build(windowing.WindowType(name), size)
		if err != nil {
			return nil, err
		}
		wt.order = append(wt.order, name)
		wt.windows[name] = win
	}

	if _, ok := wt.windows[string(windowing.WindowHann)]; !ok {
		return nil, fmt.Errorf("window types must include hann")
	}

	return wt, nil
}

// Types returns the configured type names in order.
func (wt *WindowTable) Types() []string {
	out := make([]string, len(wt.order))
	copy(out, wt.order)
	return out
}

// Get returns the window for a type name.
func (wt *WindowTable) Get(name string) (*windowing.Window, bool) {
	win, ok := wt.windows[name]
	return win, ok
}

// Hann returns the mandatory hann window.
func (wt *WindowTable) Hann() *windowing.Window {
	return wt.windows[string(windowing.WindowHann)]
}
