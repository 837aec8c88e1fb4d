package profile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"zigbee-remote-hub/internal/decoder"
	"zigbee-remote-hub/internal/zcl"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			"valid full",
			Profile{Name: "p", Clusters: []string{RoleOnOff, RoleManufacturer}, ManufacturerCluster: 0xFC00},
			false,
		},
		{
			"missing name",
			Profile{Clusters: []string{RoleOnOff}},
			true,
		},
		{
			"manufacturer role without cluster id",
			Profile{Name: "p", Clusters: []string{RoleManufacturer}},
			true,
		},
		{
			"unknown role",
			Profile{Name: "p", Clusters: []string{"thermostat"}},
			true,
		},
		{
			"bad scene numbering",
			Profile{Name: "p", SceneNumbering: "wraparound"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileClusterActive(t *testing.T) {
	p := Profile{
		Name:                "p",
		Clusters:            []string{RoleOnOff, RoleScenes, RoleManufacturer},
		ManufacturerCluster: 0xFC00,
	}

	tests := []struct {
		cluster uint16
		want    bool
	}{
		{zcl.IDOnOff, true},
		{zcl.IDScenes, true},
		{zcl.IDLevelControl, false},
		{zcl.IDColorControl, false},
		{0xFC00, true},
		{0xFC01, false},
	}

	for _, tt := range tests {
		if got := p.ClusterActive(tt.cluster); got != tt.want {
			t.Errorf("ClusterActive(0x%04x) = %v, want %v", tt.cluster, got, tt.want)
		}
	}
}

func TestProfileDeviceConfig(t *testing.T) {
	p := Profile{
		Name:                "p",
		Clusters:            []string{RoleOnOff, RoleLevelControl, RoleColorControl, RoleManufacturer},
		ManufacturerCluster: 0xFC00,
		SceneNumbering:      "offset_bounded",
	}

	cfg := p.DeviceConfig("aa:bb")
	if cfg.IEEE != "aa:bb" {
		t.Errorf("ieee = %q", cfg.IEEE)
	}
	if cfg.ManufacturerCluster != 0xFC00 {
		t.Errorf("manufacturer cluster = 0x%04x, want 0xFC00", cfg.ManufacturerCluster)
	}
	if !cfg.OnOffActive || !cfg.LevelControlActive || !cfg.ColorControlActive {
		t.Error("declared roles not active in config")
	}
	if cfg.ScenesActive {
		t.Error("scenes active without the role")
	}
	if cfg.SceneNumbering != decoder.SceneNumberingOffsetBounded {
		t.Errorf("numbering = %v, want offset_bounded", cfg.SceneNumbering)
	}
}

func TestLoadDirBuiltins(t *testing.T) {
	db, err := LoadDir(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	rgbw := db.ForModel("ZBT-Remote-ALL-RGBW")
	if rgbw.Name != "rgbw-remote" {
		t.Errorf("rgbw model resolved to %q", rgbw.Name)
	}
	if rgbw.ManufacturerCluster != 0xFC00 {
		t.Errorf("rgbw manufacturer cluster = 0x%04x", rgbw.ManufacturerCluster)
	}

	dim := db.ForModel("ZBT-DIMController-D0800")
	if dim.Name != "dim-controller" {
		t.Errorf("dimmer model resolved to %q", dim.Name)
	}
	if dim.SceneNumbering != "offset_bounded" {
		t.Errorf("dimmer numbering = %q", dim.SceneNumbering)
	}
	if dim.ClusterActive(zcl.IDColorControl) {
		t.Error("dimmer should not decode color control")
	}
}

func TestLoadDirUnknownModelFallsBack(t *testing.T) {
	db, err := LoadDir(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	p := db.ForModel("SomeFutureRemote")
	if p.Name != "generic-remote" {
		t.Errorf("fallback = %q, want generic-remote", p.Name)
	}
	if p.ClusterActive(zcl.IDColorControl) {
		t.Error("generic profile should not decode color control")
	}
}

func TestLoadDirFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	content := `profiles:
  - name: rgbw-remote
    models: ["ZBT-Remote-ALL-RGBW-v2"]
    clusters: [onoff, scenes]
    scene_numbering: direct
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := LoadDir(dir, testLogger())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	p := db.Get("rgbw-remote")
	if p == nil {
		t.Fatal("rgbw-remote missing after override")
	}
	if len(p.Clusters) != 2 {
		t.Errorf("override clusters = %v", p.Clusters)
	}

	// The new model binding applies, the builtin binding is dropped.
	if got := db.ForModel("ZBT-Remote-ALL-RGBW-v2"); got.Name != "rgbw-remote" {
		t.Errorf("new model resolved to %q", got.Name)
	}
	if got := db.ForModel("ZBT-Remote-ALL-RGBW"); got.Name != "generic-remote" {
		t.Errorf("old model binding survived override, resolved to %q", got.Name)
	}
}

func TestLoadDirRejectsInvalidProfile(t *testing.T) {
	dir := t.TempDir()
	content := `profiles:
  - name: broken
    clusters: [manufacturer]
`
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDir(dir, testLogger()); err == nil {
		t.Error("expected error for manufacturer role without cluster id")
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	db, err := LoadDir(filepath.Join(t.TempDir(), "nope"), testLogger())
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
	if len(db.All()) != len(builtins) {
		t.Errorf("got %d profiles, want %d builtins", len(db.All()), len(builtins))
	}
}
