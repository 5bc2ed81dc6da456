// ABOUTME: Open/closing/closed state machine shared by the bell and the navigation menu
// ABOUTME: A navigation requested from an overlay is released only once it has closed

package overlay

import tea "github.com/charmbracelet/bubbletea"

// State is the visibility of an overlay.
type State int

const (
	Closed State = iota
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// ClosedMsg is delivered after an overlay finished closing. ID names the
// overlay so several can share one Update loop.
type ClosedMsg struct {
	ID string
}

// Overlay tracks one overlay and the route it will release on close.
type Overlay struct {
	id      string
	state   State
	pending string
}

// New creates a closed overlay.
func New(id string) *Overlay {
	return &Overlay{id: id}
}

// ID returns the overlay's name.
func (o *Overlay) ID() string { return o.id }

// State returns the current state.
func (o *Overlay) State() State { return o.state }

// Visible reports whether the overlay is drawn.
func (o *Overlay) Visible() bool { return o.state == Open }

// Open shows the overlay and drops any unreleased route.
func (o *Overlay) Open() {
	o.state = Open
	o.pending = ""
}

// Close starts closing without navigating.
func (o *Overlay) Close() tea.Cmd {
	return o.CloseThen("")
}

// CloseThen starts closing and remembers route for Settle. The returned
// command delivers ClosedMsg. Closing an overlay that is not open is a no-op.
func (o *Overlay) CloseThen(route string) tea.Cmd {
	if o.state != Open {
		return nil
	}
	o.state = Closing
	o.pending = route
	id := o.id
	return func() tea.Msg { return ClosedMsg{ID: id} }
}

// Settle finishes a close and releases the remembered route. ok is false when
// no route was requested or the overlay was not closing.
func (o *Overlay) Settle() (route string, ok bool) {
	if o.state != Closing {
		return "", false
	}
	o.state = Closed
	route, o.pending = o.pending, ""
	return route, route != ""
}
