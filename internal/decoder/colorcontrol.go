package decoder

import "fmt"

// colorFrameKind tags the two wire shapes the remotes use on the color
// control cluster, plus an explicit "neither" variant so the caller can
// switch exhaustively instead of re-inspecting bytes.
type colorFrameKind int

const (
	colorFrameStructured colorFrameKind = iota
	colorFrameLegacy
	colorFrameUnrecognized
)

// colorFrame is the tagged result of classifying a color-control payload.
type colorFrame struct {
	kind colorFrameKind

	// structured shape: opcode 0x01, then identifier/parameter/context
	identifier byte
	parameter  byte
	context    byte

	// legacy shape: cluster command + direction byte
	command   byte
	direction byte
}

// classifyColorFrame splits a color-control frame into its wire shape.
// Structured frames start with opcode 0x01 and carry at least four bytes;
// anything else is treated as the legacy command+direction shape. An empty
// payload with command zero is unrecognized.
func classifyColorFrame(f RawFrame) colorFrame {
	p := f.Payload
	if len(p) >= 4 && p[0] == 0x01 {
		return colorFrame{
			kind:       colorFrameStructured,
			identifier: p[1],
			parameter:  p[2],
			context:    p[3],
		}
	}

	if len(p) == 0 && f.Command == 0 {
		return colorFrame{kind: colorFrameUnrecognized}
	}

	// The first payload byte carries the direction. Some firmware revisions
	// leave it zero and put the direction in the second byte instead; zero
	// also happens to be a valid "down" direction, so this fallback only
	// fires when byte two disagrees. Preserved from hardware traces.
	var dir byte
	if len(p) >= 1 {
		dir = p[0]
	}
	if dir == 0 && len(p) >= 2 {
		dir = p[1]
	}
	return colorFrame{kind: colorFrameLegacy, command: f.Command, direction: dir}
}

// structuredButton is the context-aware classification table for structured
// frames. It is authoritative: when a (parameter, context) pair matches, the
// parity resolver is bypassed entirely.
var structuredButtons = map[[2]byte]ActionID{
	{0x02, 0x01}: ActionPressedGreenRight,
	{0x02, 0x03}: ActionPressedGreenLeft,
	{0x05, 0x01}: ActionPressedGreenUp,
	{0x05, 0x03}: ActionPressedGreenDown,
	{0x4c, 0x01}: ActionPressedRedUp,
	{0x4c, 0x03}: ActionPressedRedDown,
}

// parseColorControlFrame decodes a color-control cluster frame into button
// evidence. Structured frames that miss the context table fall through to
// the parameter-only resolver (Action left empty); legacy frames resolve
// directly from the command tables.
func parseColorControlFrame(f RawFrame) (ButtonEvidence, error) {
	cf := classifyColorFrame(f)

	switch cf.kind {
	case colorFrameStructured:
		ev := ButtonEvidence{
			Path:       PathColorStructured,
			Identifier: cf.identifier,
			Parameter:  cf.parameter,
			Context:    cf.context,
			HasContext: true,
		}
		if action, ok := structuredButtons[[2]byte{cf.parameter, cf.context}]; ok {
			ev.Action = action
		}
		return ev, nil

	case colorFrameLegacy:
		action, err := legacyColorAction(cf.command, cf.direction)
		if err != nil {
			return ButtonEvidence{}, err
		}
		return ButtonEvidence{
			Path:       PathColorLegacy,
			Identifier: cf.direction,
			Parameter:  cf.command,
			Action:     action,
		}, nil
	}

	return ButtonEvidence{}, fmt.Errorf("%w: unrecognized color frame shape", ErrUnknownIdentifier)
}

// legacyColorAction maps a legacy (command, direction) pair to an action.
// Direction bytes 0x02/0x03 are "positive" (up/right), 0x00/0x01 "negative"
// (down/left). Command IDs follow the color control cluster: 0x4C step color
// temperature, 0x05 step saturation, 0x02 step hue, 0x03 move to saturation,
// 0x04 move saturation, 0x06 move to hue and saturation. Unknown commands
// default to the brightness pair, which is what the oldest remotes send.
func legacyColorAction(command, direction byte) (ActionID, error) {
	positive := direction == 0x02 || direction == 0x03
	negative := direction == 0x00 || direction == 0x01

	if command == 6 {
		// Center key: direction byte carries no information.
		return ActionPressedColorCenter, nil
	}

	if !positive && !negative {
		return "", fmt.Errorf("%w: color direction 0x%02x (command %d)", ErrUnknownIdentifier, direction, command)
	}

	switch command {
	case 76, 5:
		if positive {
			return ActionPressedBrightnessUp, nil
		}
		return ActionPressedBrightnessDown, nil
	case 2, 3:
		if positive {
			return ActionPressedColorRight, nil
		}
		return ActionPressedColorLeft, nil
	case 4:
		if positive {
			return ActionPressedColorUp, nil
		}
		return ActionPressedColorDown, nil
	default:
		if positive {
			return ActionPressedBrightnessUp, nil
		}
		return ActionPressedBrightnessDown, nil
	}
}
