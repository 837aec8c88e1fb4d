package decoder

import (
	"errors"
	"testing"

	"zigbee-remote-hub/internal/zcl"
)

func TestParseColorControlStructured(t *testing.T) {
	tests := []struct {
		name      string
		parameter byte
		context   byte
		want      ActionID
	}{
		{"green right", 0x02, 0x01, ActionPressedGreenRight},
		{"green left", 0x02, 0x03, ActionPressedGreenLeft},
		{"green up", 0x05, 0x01, ActionPressedGreenUp},
		{"green down", 0x05, 0x03, ActionPressedGreenDown},
		{"red up", 0x4c, 0x01, ActionPressedRedUp},
		{"red down", 0x4c, 0x03, ActionPressedRedDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := RawFrame{
				Cluster: zcl.IDColorControl,
				Payload: []byte{0x01, 0x07, tt.parameter, tt.context},
			}
			ev, err := parseColorControlFrame(f)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if ev.Action != tt.want {
				t.Errorf("got %q, want %q", ev.Action, tt.want)
			}
			if ev.Path != PathColorStructured {
				t.Errorf("path = %v, want structured", ev.Path)
			}
		})
	}
}

func TestParseColorControlStructuredUnmatchedPair(t *testing.T) {
	// Context byte outside the table: falls through to the parameter-only
	// resolver, so the action must stay empty and the pair must survive.
	f := RawFrame{Payload: []byte{0x01, 0x09, 0x02, 0x7f}}
	ev, err := parseColorControlFrame(f)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Action != "" {
		t.Errorf("action = %q, want empty (resolver decides)", ev.Action)
	}
	if ev.Identifier != 0x09 || ev.Parameter != 0x02 {
		t.Errorf("evidence = (0x%02x, 0x%02x), want (0x09, 0x02)", ev.Identifier, ev.Parameter)
	}
}

func TestParseColorControlLegacy(t *testing.T) {
	tests := []struct {
		name      string
		command   uint8
		direction byte
		want      ActionID
	}{
		{"step color temp up", 76, 0x03, ActionPressedBrightnessUp},
		{"step color temp down", 76, 0x00, ActionPressedBrightnessDown},
		{"step saturation up", 5, 0x02, ActionPressedBrightnessUp},
		{"step saturation down", 5, 0x01, ActionPressedBrightnessDown},
		{"step hue right", 2, 0x03, ActionPressedColorRight},
		{"step hue left", 2, 0x00, ActionPressedColorLeft},
		{"move to saturation right", 3, 0x02, ActionPressedColorRight},
		{"move saturation up", 4, 0x03, ActionPressedColorUp},
		{"move saturation down", 4, 0x01, ActionPressedColorDown},
		{"center ignores direction", 6, 0x7f, ActionPressedColorCenter},
		{"unknown command defaults up", 42, 0x02, ActionPressedBrightnessUp},
		{"unknown command defaults down", 42, 0x00, ActionPressedBrightnessDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := RawFrame{
				Cluster: zcl.IDColorControl,
				Command: tt.command,
				Payload: []byte{tt.direction},
			}
			ev, err := parseColorControlFrame(f)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if ev.Action != tt.want {
				t.Errorf("cmd %d dir 0x%02x: got %q, want %q", tt.command, tt.direction, ev.Action, tt.want)
			}
			if ev.Path != PathColorLegacy {
				t.Errorf("path = %v, want legacy", ev.Path)
			}
		})
	}
}

func TestParseColorControlLegacyUnknownDirection(t *testing.T) {
	f := RawFrame{Command: 76, Payload: []byte{0x7f}}
	_, err := parseColorControlFrame(f)
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("err = %v, want ErrUnknownIdentifier", err)
	}
}

func TestClassifyColorFrameDirectionFallback(t *testing.T) {
	// A zero first byte defers to the second; observed on older firmware.
	cf := classifyColorFrame(RawFrame{Command: 76, Payload: []byte{0x00, 0x03}})
	if cf.kind != colorFrameLegacy {
		t.Fatalf("kind = %v, want legacy", cf.kind)
	}
	if cf.direction != 0x03 {
		t.Errorf("direction = 0x%02x, want 0x03 (fallback to second byte)", cf.direction)
	}

	// Both zero: stays zero, resolving as "down".
	cf = classifyColorFrame(RawFrame{Command: 76, Payload: []byte{0x00, 0x00}})
	if cf.direction != 0x00 {
		t.Errorf("direction = 0x%02x, want 0x00", cf.direction)
	}
}

func TestClassifyColorFrameStructuredNeedsFourBytes(t *testing.T) {
	// Opcode 0x01 but only three bytes: not structured, falls to legacy.
	cf := classifyColorFrame(RawFrame{Command: 2, Payload: []byte{0x01, 0x02, 0x03}})
	if cf.kind != colorFrameLegacy {
		t.Errorf("kind = %v, want legacy for short structured-looking frame", cf.kind)
	}
}

func TestClassifyColorFrameUnrecognized(t *testing.T) {
	cf := classifyColorFrame(RawFrame{})
	if cf.kind != colorFrameUnrecognized {
		t.Errorf("kind = %v, want unrecognized for empty frame", cf.kind)
	}
}
