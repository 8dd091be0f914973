package domain

import "fmt"

// ModeKind names the active interaction tool.
type ModeKind string

const (
	ModeIdle    ModeKind = "idle"
	ModeDrawing ModeKind = "drawing"
	ModeEditing ModeKind = "editing"
	ModeErasing ModeKind = "erasing"
)

// Mode is a tagged variant of the interaction state. Target carries the id of
// the area being edited and is only meaningful while Kind is ModeEditing;
// zero means editing is enabled but no area has been selected yet. Keeping
// the target inside the mode makes "target set while not editing"
// unrepresentable.
type Mode struct {
	Kind   ModeKind `json:"kind"`
	Target int64    `json:"target,omitempty"`
}

// Idle returns the inactive mode.
func Idle() Mode { return Mode{Kind: ModeIdle} }

// Drawing returns the polygon-draw mode.
func Drawing() Mode { return Mode{Kind: ModeDrawing} }

// Editing returns the edit mode. Pass 0 for "no target selected yet".
func Editing(target int64) Mode { return Mode{Kind: ModeEditing, Target: target} }

// Erasing returns the erase mode.
func Erasing() Mode { return Mode{Kind: ModeErasing} }

// HasTarget reports whether an edit target is selected.
func (m Mode) HasTarget() bool { return m.Kind == ModeEditing && m.Target != 0 }

func (m Mode) String() string {
	if m.Kind == ModeEditing && m.Target != 0 {
		return fmt.Sprintf("editing(%d)", m.Target)
	}
	return string(m.Kind)
}

// Step is the workflow step of the area-definition flow.
type Step string

const (
	StepDefine   Step = "define"
	StepSearch   Step = "search"
	StepComplete Step = "complete"
)
