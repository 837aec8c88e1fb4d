package decoder

import "testing"

func TestNormalizerOnOff(t *testing.T) {
	n := NewNormalizer(SceneNumberingDirect, testLogger())
	if got := n.SetOn(); got != ActionPressedOn {
		t.Errorf("SetOn = %q, want pressed_on", got)
	}
	if got := n.SetOff(); got != ActionPressedOff {
		t.Errorf("SetOff = %q, want pressed_off", got)
	}
}

func TestNormalizerStep(t *testing.T) {
	n := NewNormalizer(SceneNumberingDirect, testLogger())
	if got := n.Step(0); got != ActionPressedBrightnessUp {
		t.Errorf("Step(0) = %q, want brightness up", got)
	}
	// Any nonzero mode steps down.
	for _, mode := range []uint8{1, 2, 0xff} {
		if got := n.Step(mode); got != ActionPressedBrightnessDown {
			t.Errorf("Step(%d) = %q, want brightness down", mode, got)
		}
	}
}

func TestNormalizerRecallScene(t *testing.T) {
	tests := []struct {
		name      string
		numbering SceneNumbering
		sceneID   uint8
		want      ActionID
	}{
		{"direct 1", SceneNumberingDirect, 1, ActionPressedScene1},
		{"direct 2", SceneNumberingDirect, 2, ActionPressedScene2},
		{"direct 4", SceneNumberingDirect, 4, ActionPressedScene4},
		{"offset 0", SceneNumberingOffsetBounded, 0, ActionPressedScene1},
		{"offset 2", SceneNumberingOffsetBounded, 2, ActionPressedScene3},
		{"offset 3", SceneNumberingOffsetBounded, 3, ActionPressedScene4},
		{"offset bounds at 4", SceneNumberingOffsetBounded, 9, ActionPressedScene4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.numbering, testLogger())
			if got := n.RecallScene(tt.sceneID); got != tt.want {
				t.Errorf("RecallScene(%d) = %q, want %q", tt.sceneID, got, tt.want)
			}
		})
	}
}

func TestParseSceneNumbering(t *testing.T) {
	tests := []struct {
		in      string
		want    SceneNumbering
		wantErr bool
	}{
		{"", SceneNumberingDirect, false},
		{"direct", SceneNumberingDirect, false},
		{"offset_bounded", SceneNumberingOffsetBounded, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSceneNumbering(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSceneNumbering(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSceneNumbering(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSceneNumbering(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
