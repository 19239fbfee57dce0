package core

import (
	"maps"
	"strings"
)

// Query holds the query parameters of a navigation.
type Query map[string]string

// Options are per-navigation flags supplied by whoever triggered it.
type Options struct {
	// NoCache forces Enter on a cached Action instead of Wakeup.
	NoCache bool

	// Extra carries application-defined flags through to the Action.
	Extra map[string]any
}

// TransitionNone disables the visual transition.
const TransitionNone = ""

// Transition describes the visual effect the viewport runs when the page is
// inserted. Type selects the effect; Params are effect-specific settings.
type Transition struct {
	Type   string
	Params map[string]any
}

// merge overlays other onto t. A non-empty Type wins; Params merge key by key.
func (t Transition) merge(other *Transition) Transition {
	out := Transition{Type: t.Type, Params: maps.Clone(t.Params)}
	if other == nil {
		return out
	}
	if other.Type != "" {
		out.Type = other.Type
	}
	if len(other.Params) > 0 {
		if out.Params == nil {
			out.Params = make(map[string]any, len(other.Params))
		}
		maps.Copy(out.Params, other.Params)
	}
	return out
}

// RouteConfig is a route registration entry passed to Navigator.Load.
type RouteConfig struct {
	Path       string
	Action     ActionSpec
	Cached     bool
	Transition Transition
}

// Route is a navigation request. The Navigator clones a Route when it is
// accepted so later mutation by the caller has no effect.
type Route struct {
	Path       string
	Query      Query
	Action     ActionSpec
	Cached     bool
	Transition Transition
	Options    Options
}

// Clone returns a deep copy of the route's maps.
func (r Route) Clone() Route {
	r.Query = maps.Clone(r.Query)
	r.Transition.Params = maps.Clone(r.Transition.Params)
	r.Options.Extra = maps.Clone(r.Options.Extra)
	return r
}

// routeTo merges a registration with a router match.
func (c RouteConfig) routeTo(path string, query Query, opts Options) Route {
	return Route{
		Path:       path,
		Query:      query,
		Action:     c.Action,
		Cached:     c.Cached,
		Transition: c.Transition,
		Options:    opts,
	}.Clone()
}

func (c RouteConfig) validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return newNavigationError("register", c.Path, ErrInvalidRoute, nil)
	}
	return nil
}
