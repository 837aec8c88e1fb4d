package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Built-in profiles for the supported remote families. Directory files may
// override them by name.
//
// The RGBW remote signals scene keys on its vendor cluster and everything
// else on the standard clusters; the color-control channel stays active
// because the color and brightness rockers arrive there. The dimmer has no
// color hardware and uses the offset-bounded scene convention — both facts
// verified against real devices, neither safe to "clean up".
var builtins = []Profile{
	{
		Name:                "rgbw-remote",
		Models:              []string{"ZBT-Remote-ALL-RGBW"},
		Clusters:            []string{RoleOnOff, RoleLevelControl, RoleScenes, RoleColorControl, RoleManufacturer},
		ManufacturerCluster: 0xFC00,
		SceneNumbering:      "direct",
		Buttons: map[string]string{
			"pressed_green_left":  "green rocker left",
			"pressed_green_right": "green rocker right",
			"pressed_green_up":    "green rocker up",
			"pressed_green_down":  "green rocker down",
			"pressed_red_up":      "red rocker up",
			"pressed_red_down":    "red rocker down",
		},
	},
	{
		Name:           "dim-controller",
		Models:         []string{"ZBT-DIMController-D0800"},
		Clusters:       []string{RoleOnOff, RoleLevelControl, RoleScenes},
		SceneNumbering: "offset_bounded",
	},
}

// defaultProfile is used for unknown models: structured capability commands
// only, no ambiguous frame channels.
var defaultProfile = Profile{
	Name:           "generic-remote",
	Clusters:       []string{RoleOnOff, RoleLevelControl, RoleScenes},
	SceneNumbering: "direct",
}

// DB is the loaded profile set, looked up by model identifier.
type DB struct {
	profiles []*Profile
	byName   map[string]*Profile
	byModel  map[string]*Profile
	logger   *slog.Logger
}

// profileFile is the YAML structure for files in the profiles directory.
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadDir builds a profile DB from the built-ins plus any *.yaml files in
// dir. A missing or empty directory is not an error; built-ins still apply.
func LoadDir(dir string, logger *slog.Logger) (*DB, error) {
	db := &DB{
		byName:  make(map[string]*Profile),
		byModel: make(map[string]*Profile),
		logger:  logger,
	}
	for _, p := range builtins {
		db.add(p)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return db, fmt.Errorf("glob profiles dir: %w", err)
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return db, fmt.Errorf("read %s: %w", path, err)
		}
		var pf profileFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return db, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, p := range pf.Profiles {
			if err := p.Validate(); err != nil {
				return db, fmt.Errorf("%s: %w", path, err)
			}
			db.add(p)
		}
		logger.Info("loaded profile file", "path", filepath.Base(path), "profiles", len(pf.Profiles))
	}

	logger.Info("profile database loaded", "profiles", len(db.profiles))
	return db, nil
}

func (db *DB) add(p Profile) {
	cp := p
	if existing, ok := db.byName[p.Name]; ok {
		// Override by name: drop the old model bindings.
		for _, m := range existing.Models {
			delete(db.byModel, m)
		}
		for i, q := range db.profiles {
			if q == existing {
				db.profiles[i] = &cp
			}
		}
	} else {
		db.profiles = append(db.profiles, &cp)
	}
	db.byName[p.Name] = &cp
	for _, m := range p.Models {
		db.byModel[m] = &cp
	}
}

// ForModel returns the profile for a model identifier, or the generic
// default when the model is unknown.
func (db *DB) ForModel(model string) *Profile {
	if p, ok := db.byModel[model]; ok {
		return p
	}
	return &defaultProfile
}

// Get returns a profile by name, or nil.
func (db *DB) Get(name string) *Profile {
	return db.byName[name]
}

// All returns every loaded profile.
func (db *DB) All() []*Profile {
	return db.profiles
}
