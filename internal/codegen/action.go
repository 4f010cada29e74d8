// Package codegen synthesizes page-object accessor declarations and test
// statements for captured elements.
package codegen

import (
	"fmt"
	"strings"
)

// ActionKind is the interaction a statement performs.
type ActionKind int

const (
	Click ActionKind = iota
	Type
	Hover
	ScrollIntoView
	AssertVisible
	WaitOnly
	WaitThenClick
)

var actionNames = map[ActionKind]string{
	Click:          "click",
	Type:           "type",
	Hover:          "hover",
	ScrollIntoView: "scroll",
	AssertVisible:  "assert-visible",
	WaitOnly:       "wait",
	WaitThenClick:  "wait-click",
}

var actionLabels = map[ActionKind]string{
	Click:          "Click",
	Type:           "Type",
	Hover:          "Hover",
	ScrollIntoView: "Scroll into view",
	AssertVisible:  "Assert visible",
	WaitOnly:       "Wait",
	WaitThenClick:  "Wait & click",
}

// ActionKinds lists every action in menu order.
var ActionKinds = []ActionKind{Click, Type, Hover, ScrollIntoView, AssertVisible, WaitOnly, WaitThenClick}

// String returns the stable name used by the CLI and MCP tools.
func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Label returns the human-facing menu label.
func (k ActionKind) Label() string {
	if label, ok := actionLabels[k]; ok {
		return label
	}
	return k.String()
}

// Valid reports whether k is a known action.
func (k ActionKind) Valid() bool {
	_, ok := actionNames[k]
	return ok
}

// ParseActionKind parses a stable action name. Matching is case-insensitive
// and accepts a few aliases ("scrollintoview", "assert", "wait-and-click").
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click":
		return Click, nil
	case "type":
		return Type, nil
	case "hover":
		return Hover, nil
	case "scroll", "scrollintoview", "scroll-into-view":
		return ScrollIntoView, nil
	case "assert-visible", "assert", "assertvisible":
		return AssertVisible, nil
	case "wait", "wait-only":
		return WaitOnly, nil
	case "wait-click", "wait-and-click", "waitthenclick":
		return WaitThenClick, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// WaitCondition is an optional readiness assertion before the action.
type WaitCondition int

const (
	WaitNone WaitCondition = iota
	WaitVisible
	WaitExists
	WaitEnabled
)

// WaitConditions lists every wait condition in menu order.
var WaitConditions = []WaitCondition{WaitNone, WaitVisible, WaitExists, WaitEnabled}

var waitNames = map[WaitCondition]string{
	WaitNone:    "none",
	WaitVisible: "visible",
	WaitExists:  "exists",
	WaitEnabled: "enabled",
}

var waitChainers = map[WaitCondition]string{
	WaitVisible: "be.visible",
	WaitExists:  "exist",
	WaitEnabled: "be.enabled",
}

// String returns the stable name used by the CLI and MCP tools.
func (w WaitCondition) String() string {
	if name, ok := waitNames[w]; ok {
		return name
	}
	return fmt.Sprintf("wait(%d)", int(w))
}

// Chainer returns the Cypress chainer for w, or "" for WaitNone.
func (w WaitCondition) Chainer() string {
	return waitChainers[w]
}

// Valid reports whether w is a known wait condition.
func (w WaitCondition) Valid() bool {
	_, ok := waitNames[w]
	return ok
}

// ParseWaitCondition parses a stable wait name or a Cypress chainer.
// An empty string is WaitNone.
func ParseWaitCondition(s string) (WaitCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return WaitNone, nil
	case "visible", "be.visible":
		return WaitVisible, nil
	case "exists", "exist":
		return WaitExists, nil
	case "enabled", "be.enabled":
		return WaitEnabled, nil
	}
	return 0, fmt.Errorf("unknown wait condition %q", s)
}

// ActionSpec is the user's full choice for one captured element.
// TypedValue is required iff Kind is Type.
type ActionSpec struct {
	Kind       ActionKind
	Wait       WaitCondition
	Force      bool
	Multiple   bool
	TypedValue *string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
