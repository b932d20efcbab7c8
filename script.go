package lumen

import (
	"encoding/json"
	"fmt"
	"log"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action    string         `json:"action"`
	Name      string         `json:"name,omitempty"`
	Overrides map[string]any `json:"overrides,omitempty"`
	Frames    int            `json:"frames,omitempty"`
	X         float64        `json:"x,omitempty"`
	Y         float64        `json:"y,omitempty"`
	ToX       float64        `json:"toX,omitempty"`
	ToY       float64        `json:"toY,omitempty"`
}

// script is the top-level JSON structure.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"play":       true,
	"startTheme": true,
	"stopTheme":  true,
	"sync":       true,
	"stopAll":    true,
	"wait":       true,
	"pointer":    true,
	"screenshot": true,
}

// ScriptRunner sequences engine calls across frames. Attach it with
// Engine.SetScript; it advances one step per frame, before the host tick.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	failures  []string
}

// LoadScript parses a JSON script:
//
//	{"steps": [
//	  {"action": "startTheme", "name": "snow", "overrides": {"emissionRate": 14}},
//	  {"action": "wait", "frames": 60},
//	  {"action": "play", "name": "fade"}
//	]}
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range s.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: s.Steps}, nil
}

// SetScript attaches a script runner. Nil detaches.
func (e *Engine) SetScript(r *ScriptRunner) {
	e.script = r
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Failures lists the play/startTheme steps that returned false.
func (r *ScriptRunner) Failures() []string {
	return r.failures
}

// step advances the runner by one frame. Called from Engine.Step.
func (r *ScriptRunner) step(e *Engine) {
	if r.done {
		return
	}
	// Let queued pointer moves drain before advancing.
	if e.host.PendingPointer() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "play":
		if !e.Play(st.Name, st.Overrides) {
			r.fail(st)
		}
	case "startTheme":
		if !e.StartTheme(st.Name, st.Overrides) {
			r.fail(st)
		}
	case "stopTheme":
		e.StopTheme()
	case "sync":
		e.SyncActiveThemeOverlay()
	case "stopAll":
		e.StopAll()
	case "pointer":
		frames := st.Frames
		if frames < 2 {
			e.host.InjectPointer(st.X, st.Y)
		} else {
			e.host.InjectPointerPath(st.X, st.Y, st.ToX, st.ToY, frames)
		}
	case "screenshot":
		e.host.Screenshot(st.Name)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && e.host.PendingPointer() == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) fail(st scriptStep) {
	msg := fmt.Sprintf("step %d: %s %q", r.cursor-1, st.Action, st.Name)
	log.Printf("[lumen] script %s failed", msg)
	r.failures = append(r.failures, msg)
}
