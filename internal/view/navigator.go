// Package view tracks which dashboard screen is active and the bug it shows.
package view

import (
	"fmt"
	"slices"

	"github.com/zulandar/bugboard/internal/models"
)

// View names a dashboard screen.
type View string

const (
	Dashboard     View = "dashboard"
	List          View = "list"
	Detail        View = "detail"
	Create        View = "create"
	Search        View = "search"
	Team          View = "team"
	Notifications View = "notifications"
	Settings      View = "settings"
)

// Views lists every screen in sidebar order.
var Views = []View{Dashboard, List, Detail, Create, Search, Team, Notifications, Settings}

var stubs = []View{Search, Team, Notifications, Settings}

// IsStub reports whether v is a placeholder screen with no behaviour.
func IsStub(v View) bool {
	return slices.Contains(stubs, v)
}

// ParseView converts a raw name into a View.
func ParseView(raw string) (View, error) {
	v := View(raw)
	if !slices.Contains(Views, v) {
		return "", fmt.Errorf("view: unknown view %q", raw)
	}
	return v, nil
}

// State is the active screen. Bug is set only while View is Detail.
type State struct {
	View View
	Bug  *models.Bug
}

// Navigator is the screen state machine. The zero value starts on the
// dashboard. A Navigator is not safe for concurrent use.
type Navigator struct {
	state State
}

// NewNavigator starts on the dashboard.
func NewNavigator() *Navigator {
	return &Navigator{state: State{View: Dashboard}}
}

// Current returns the active state.
func (n *Navigator) Current() State {
	if n.state.View == "" {
		return State{View: Dashboard}
	}
	return n.state
}

// Open switches to v from any screen, as the sidebar does. Opening Detail
// without a bug lands on the list instead.
func (n *Navigator) Open(v View) {
	if v == Detail {
		v = List
	}
	n.state = State{View: v}
}

// ReportBug moves from the dashboard to the report form. It is a no-op on
// other screens.
func (n *Navigator) ReportBug() {
	if n.Current().View == Dashboard {
		n.state = State{View: Create}
	}
}

// SelectBug opens the detail screen for b. A nil bug degrades to the list.
func (n *Navigator) SelectBug(b *models.Bug) {
	if b == nil {
		n.state = State{View: List}
		return
	}
	n.state = State{View: Detail, Bug: b}
}

// Back returns from detail to the list and from the report form to the
// dashboard. Other screens ignore it.
func (n *Navigator) Back() {
	switch n.Current().View {
	case Detail:
		n.state = State{View: List}
	case Create:
		n.state = State{View: Dashboard}
	}
}

// Submitted leaves the report form after a successful create.
func (n *Navigator) Submitted() {
	if n.Current().View == Create {
		n.state = State{View: Dashboard}
	}
}
