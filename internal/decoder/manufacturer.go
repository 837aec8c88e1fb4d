package decoder

import (
	"fmt"
)

// manufacturerMinLen is the shortest vendor frame that still carries the
// button code at offset 5.
const manufacturerMinLen = 6

// Scene button codes observed on the vendor-specific cluster. The remotes
// reuse this channel for the four numbered scene keys only; everything else
// arrives on the standard clusters.
var manufacturerSceneButtons = map[byte]int{
	0x0a: 1,
	0x0b: 2,
	0x0c: 3,
	0x0d: 4,
}

// parseManufacturerFrame decodes a vendor-specific cluster frame into button
// evidence. The button code sits at payload[5]; the auxiliary byte is
// payload[6] when present, payload[1] otherwise (short frames from older
// firmware).
func parseManufacturerFrame(f RawFrame) (ButtonEvidence, error) {
	if len(f.Payload) < manufacturerMinLen {
		return ButtonEvidence{}, fmt.Errorf("%w: vendor frame needs %d bytes, got %d",
			ErrMalformedFrame, manufacturerMinLen, len(f.Payload))
	}

	buttonID := f.Payload[5]
	aux := f.Payload[1]
	if len(f.Payload) > 6 {
		aux = f.Payload[6]
	}

	scene, ok := manufacturerSceneButtons[buttonID]
	if !ok {
		return ButtonEvidence{}, fmt.Errorf("%w: vendor button 0x%02x", ErrUnknownIdentifier, buttonID)
	}

	return ButtonEvidence{
		Path:       PathManufacturer,
		Identifier: buttonID,
		Parameter:  aux,
		Action:     SceneAction(scene),
	}, nil
}
