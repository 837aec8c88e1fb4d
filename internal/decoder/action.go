package decoder

import (
	"encoding/hex"
	"fmt"
	"time"
)

// ActionID names a canonical button action. The set is closed: rule-engine
// consumers match on these exact strings, so new values require coordination
// with whatever automations are deployed.
type ActionID string

const (
	ActionPressedOn             ActionID = "pressed_on"
	ActionPressedOff            ActionID = "pressed_off"
	ActionPressedBrightnessUp   ActionID = "pressed_brightness_up"
	ActionPressedBrightnessDown ActionID = "pressed_brightness_down"
	ActionPressedColorLeft      ActionID = "pressed_color_left"
	ActionPressedColorRight     ActionID = "pressed_color_right"
	ActionPressedColorUp        ActionID = "pressed_color_up"
	ActionPressedColorDown      ActionID = "pressed_color_down"
	ActionPressedColorCenter    ActionID = "pressed_color_center"
	ActionPressedGreenLeft      ActionID = "pressed_green_left"
	ActionPressedGreenRight     ActionID = "pressed_green_right"
	ActionPressedGreenUp        ActionID = "pressed_green_up"
	ActionPressedGreenDown      ActionID = "pressed_green_down"
	ActionPressedRedUp          ActionID = "pressed_red_up"
	ActionPressedRedDown        ActionID = "pressed_red_down"
	ActionPressedScene1         ActionID = "pressed_scene_1"
	ActionPressedScene2         ActionID = "pressed_scene_2"
	ActionPressedScene3         ActionID = "pressed_scene_3"
	ActionPressedScene4         ActionID = "pressed_scene_4"
)

// SceneAction returns the scene action for a 1-based scene index.
func SceneAction(n int) ActionID {
	return ActionID(fmt.Sprintf("pressed_scene_%d", n))
}

// SourcePath records which decode path produced an action.
type SourcePath string

const (
	SourceManufacturer SourcePath = "manufacturer"
	SourceColorControl SourcePath = "color_control"
	SourceOnOff        SourcePath = "onoff"
	SourceLevelControl SourcePath = "level_control"
	SourceScenes       SourcePath = "scenes"
)

// Evidence is the raw material an action was decoded from, kept for
// diagnostics. Payload is the original frame payload; it is nil for actions
// normalized from structured capability commands.
type Evidence struct {
	Endpoint uint8  `json:"endpoint,omitempty"`
	Cluster  uint16 `json:"cluster,omitempty"`
	Command  uint8  `json:"command,omitempty"`
	Payload  []byte `json:"-"`
}

// PayloadHex returns the payload as a hex string for logs and the API.
func (e Evidence) PayloadHex() string {
	return hex.EncodeToString(e.Payload)
}

// Action is a decoded canonical button action, handed to the trigger sink
// and then forgotten.
type Action struct {
	ID       ActionID   `json:"action"`
	Source   SourcePath `json:"source"`
	Device   string     `json:"device"`
	Time     time.Time  `json:"time"`
	Evidence Evidence   `json:"evidence"`
}
