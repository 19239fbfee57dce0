package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Swind/go-nav-runner/core"
)

// RouteEntry is one route of a manifest.
type RouteEntry struct {
	Path   string `toml:"path"`
	Action string `toml:"action,omitempty"`
	Cached bool   `toml:"cached,omitempty"`

	Transition       string         `toml:"transition,omitempty"`
	TransitionParams map[string]any `toml:"transition_params,omitempty"`

	// Config is passed to the Action factory.
	Config map[string]any `toml:"config,omitempty"`
}

// RouteManifest is the routes.toml document.
type RouteManifest struct {
	Version int          `toml:"version"`
	Routes  []RouteEntry `toml:"route"`
}

// Registry maps manifest action names to factories.
type Registry map[string]core.ActionFactory

// LoadRoutes reads a route manifest. Unknown keys are rejected.
func LoadRoutes(path string) (RouteManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return RouteManifest{}, fmt.Errorf("open routes %s: %w", path, err)
	}
	defer f.Close()

	m, err := DecodeRoutes(f)
	if err != nil {
		return RouteManifest{}, fmt.Errorf("routes %s: %w", path, err)
	}
	return m, nil
}

// DecodeRoutes decodes a route manifest from r.
func DecodeRoutes(r io.Reader) (RouteManifest, error) {
	var m RouteManifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return RouteManifest{}, fmt.Errorf("decode routes: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return RouteManifest{}, fmt.Errorf("decode routes: unknown keys %s", strings.Join(keys, ", "))
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return m, nil
}

// WriteRoutes writes m to path, creating the directory if needed.
func WriteRoutes(path string, m RouteManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create routes dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create routes %s: %w", path, err)
	}
	if m.Version == 0 {
		m.Version = 1
	}
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("encode routes: %w", err)
	}
	return f.Close()
}

// RouteConfigs resolves the manifest against registry. An entry without an
// action uses the default BaseAction configured with its Config.
func (m RouteManifest) RouteConfigs(registry Registry) ([]core.RouteConfig, error) {
	out := make([]core.RouteConfig, 0, len(m.Routes))
	for _, e := range m.Routes {
		spec := core.WithConfig(core.ActionConfig(e.Config))
		if e.Action != "" {
			factory, ok := registry[e.Action]
			if !ok {
				return nil, fmt.Errorf("route %q: unknown action %q (known: %s)", e.Path, e.Action, strings.Join(registry.Names(), ", "))
			}
			spec = core.WithFactory(factory, core.ActionConfig(e.Config))
		}
		out = append(out, core.RouteConfig{
			Path:       e.Path,
			Action:     spec,
			Cached:     e.Cached,
			Transition: core.Transition{Type: e.Transition, Params: e.TransitionParams},
		})
	}
	return out, nil
}

// Names returns the registered action names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
