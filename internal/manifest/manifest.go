// Package manifest loads the static manager-registration manifest
// cmd/taskgridd reads at startup (SPEC_FULL.md's domain stack entry for
// gopkg.in/yaml.v3: "YAML form of cmd/taskgridd static manager-registration
// manifest"), grounded on the teacher retrieval pack's YAML-driven test
// scenario loader (integration_tests/framework.LoadScenarios: os.ReadFile
// + yaml.Unmarshal into a tagged struct).
//
// A manifest only ever declares *structure* — manager names, path
// prefixes, and which of internal/manager's preset handlers to bind, each
// against a named Store the embedding application registers by name
// before loading the file. It cannot declare arbitrary handler bodies:
// spec.md §9 already resolves that open question as ordinary named Go
// methods, not as data, and the manifest is loaded once at startup with
// no reload surface (no hot route reload, per spec.md's Non-goals).
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/application"
	"taskgrid/internal/manager"
)

// PresetSpec declares one preset handler to bind on a manager (§9's
// "get_<manager>"/"put_<field>" resolution).
type PresetSpec struct {
	// Type is one of "get", "list", "put_field".
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	// Field names the single field a put_field preset updates; required
	// only when Type is "put_field".
	Field string `yaml:"field,omitempty"`
}

// ManagerSpec declares one Manager: its name, its path prefix, the name of
// the Store the embedding application registered for it, and the presets
// bound under it.
type ManagerSpec struct {
	Name       string       `yaml:"name"`
	PathPrefix string       `yaml:"path_prefix"`
	Store      string       `yaml:"store"`
	Presets    []PresetSpec `yaml:"presets"`
}

// Manifest is the top-level YAML document shape.
type Manifest struct {
	Managers []ManagerSpec `yaml:"managers"`
}

// Load reads and parses a manifest file from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return &m, nil
}

// Apply builds one manager.Manager per declared ManagerSpec, binds its
// presets against the matching entry in stores (keyed by ManagerSpec.Store),
// and merges each manager's registry into app's registry for
// transportName (§3 "Transport binding", §4.2 "Merge").
func Apply(m *Manifest, stores map[string]manager.Store, app *application.Application, transportName string) error {
	reg := app.Registry(transportName)
	for _, spec := range m.Managers {
		store, ok := stores[spec.Store]
		if !ok {
			return apperrors.Newf(apperrors.KindInternal, "manifest: manager %q references unknown store %q", spec.Name, spec.Store)
		}

		mgr := manager.New(spec.Name, spec.PathPrefix)
		for _, p := range spec.Presets {
			if err := bindPreset(mgr, p, store); err != nil {
				return fmt.Errorf("manifest: manager %q: %w", spec.Name, err)
			}
		}
		reg.Merge(mgr.Registry)
	}
	return nil
}

func bindPreset(mgr *manager.Manager, p PresetSpec, store manager.Store) error {
	switch p.Type {
	case "get":
		mgr.PresetGet(p.Path, store)
	case "list":
		mgr.PresetList(p.Path, store)
	case "put_field":
		if p.Field == "" {
			return apperrors.Newf(apperrors.KindInternal, "put_field preset at %q requires a field name", p.Path)
		}
		mgr.PresetPutField(p.Path, p.Field, store)
	default:
		return apperrors.Newf(apperrors.KindInternal, "unknown preset type %q", p.Type)
	}
	return nil
}
