package decoder

import (
	"fmt"
	"log/slog"
)

// SceneNumbering selects how a scene recall maps to a scene action. The two
// remote families disagree and the difference is load-bearing: unifying them
// would silently retarget deployed automations, so the variant is per-model
// configuration and must stay that way until re-validated against hardware.
type SceneNumbering int

const (
	// SceneNumberingDirect emits pressed_scene_<sceneID> as-is.
	SceneNumberingDirect SceneNumbering = iota
	// SceneNumberingOffsetBounded emits pressed_scene_<min(sceneID+1, 4)>.
	SceneNumberingOffsetBounded
)

// ParseSceneNumbering parses the profile-file spelling of a variant.
func ParseSceneNumbering(s string) (SceneNumbering, error) {
	switch s {
	case "", "direct":
		return SceneNumberingDirect, nil
	case "offset_bounded":
		return SceneNumberingOffsetBounded, nil
	}
	return 0, fmt.Errorf("unknown scene numbering %q", s)
}

func (n SceneNumbering) String() string {
	if n == SceneNumberingOffsetBounded {
		return "offset_bounded"
	}
	return "direct"
}

// Normalizer converts already-structured capability commands into actions.
// These commands are unambiguous, so nothing here touches the resolver or
// keeps state.
type Normalizer struct {
	numbering SceneNumbering
	logger    *slog.Logger
}

// NewNormalizer creates a normalizer with the given scene numbering variant.
func NewNormalizer(numbering SceneNumbering, logger *slog.Logger) *Normalizer {
	return &Normalizer{numbering: numbering, logger: logger}
}

// SetOn maps the on/off cluster "on" command.
func (n *Normalizer) SetOn() ActionID { return ActionPressedOn }

// SetOff maps the on/off cluster "off" command.
func (n *Normalizer) SetOff() ActionID { return ActionPressedOff }

// Step maps a level-control step: mode 0 steps up, anything else down.
func (n *Normalizer) Step(stepMode uint8) ActionID {
	if stepMode == 0 {
		return ActionPressedBrightnessUp
	}
	return ActionPressedBrightnessDown
}

// RecallScene maps a scene recall through the configured numbering variant.
func (n *Normalizer) RecallScene(sceneID uint8) ActionID {
	if n.numbering == SceneNumberingOffsetBounded {
		idx := int(sceneID) + 1
		if idx > 4 {
			idx = 4
		}
		return SceneAction(idx)
	}
	return SceneAction(int(sceneID))
}

// MoveToHue is a documented no-op: the remotes send it alongside center-key
// presses but no canonical action is defined for it. Logged for diagnostics.
func (n *Normalizer) MoveToHue(hue uint8) {
	n.logger.Debug("moveToHue received, no action defined", "hue", hue)
}

// MoveToSaturation is a documented no-op, same as MoveToHue.
func (n *Normalizer) MoveToSaturation(saturation uint8) {
	n.logger.Debug("moveToSaturation received, no action defined", "saturation", saturation)
}

// Capabilities is the slot set the capability-binding collaborator invokes.
// Only populated slots are called; a nil slot means the device does not
// expose that capability.
type Capabilities struct {
	OnSetOn            func()
	OnSetOff           func()
	OnStep             func(stepMode uint8)
	OnRecallScene      func(sceneID uint8)
	OnMoveToHue        func(hue uint8)
	OnMoveToSaturation func(saturation uint8)
}
