package core

import (
	"context"
	"testing"
)

// TestBaseAction_Lifecycle tests default hook behavior
// Main test items:
// 1. Enter and Wakeup record path and query
// 2. Each hook moves the lifecycle state
func TestBaseAction_Lifecycle(t *testing.T) {
	a := NewBaseAction(ActionConfig{"title": "home"})

	if a.State() != ActionConstructed {
		t.Fatalf("initial state = %v", a.State())
	}
	if a.Config()["title"] != "home" {
		t.Errorf("config not kept: %v", a.Config())
	}

	if err := a.Enter(context.Background(), "/a", Query{"q": "1"}, nil, Options{}); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if a.State() != ActionEntering || a.Path() != "/a" || a.Query()["q"] != "1" {
		t.Errorf("after Enter: state=%v path=%q query=%v", a.State(), a.Path(), a.Query())
	}

	a.Ready()
	if a.State() != ActionActive {
		t.Errorf("after Ready: %v", a.State())
	}
	a.Sleep()
	if a.State() != ActionSleeping {
		t.Errorf("after Sleep: %v", a.State())
	}
	a.Wakeup("/a", Query{"q": "2"}, Options{})
	if a.State() != ActionActive || a.Query()["q"] != "2" {
		t.Errorf("after Wakeup: state=%v query=%v", a.State(), a.Query())
	}
	a.Leave()
	if a.State() != ActionLeaving {
		t.Errorf("after Leave: %v", a.State())
	}
}

// TestBaseAction_DisposeCleanups tests cleanup registration
// Main test items:
// 1. Cleanups run in reverse registration order
// 2. A second Dispose runs nothing
func TestBaseAction_DisposeCleanups(t *testing.T) {
	a := NewBaseAction(nil)
	var order []int
	a.OnDispose(func() { order = append(order, 1) })
	a.OnDispose(func() { order = append(order, 2) })

	a.Dispose()
	a.Dispose()

	if !equalInts(order, []int{2, 1}) {
		t.Errorf("cleanup order = %v, want [2 1]", order)
	}
	if a.State() != ActionDisposed {
		t.Errorf("state = %v, want disposed", a.State())
	}
}

// TestActionSpec_Resolve tests factory resolution
// Main test items:
// 1. A config-only spec builds a BaseAction carrying the config
// 2. An explicit factory receives the config
func TestActionSpec_Resolve(t *testing.T) {
	spec := WithConfig(ActionConfig{"k": "v"})
	if spec.Factory != nil {
		t.Fatal("WithConfig should leave Factory unset")
	}
	resolved := spec.Resolve()
	if resolved.Factory == nil {
		t.Fatal("Resolve should fill Factory")
	}
	base, ok := resolved.New().(*BaseAction)
	if !ok {
		t.Fatalf("default factory built %T, want *BaseAction", resolved.New())
	}
	if base.Config()["k"] != "v" {
		t.Errorf("config = %v", base.Config())
	}

	var got ActionConfig
	custom := WithFactory(func(cfg ActionConfig) Action {
		got = cfg
		return NewBaseAction(cfg)
	}, ActionConfig{"x": 1})
	custom.New()
	if got["x"] != 1 {
		t.Errorf("factory config = %v", got)
	}
}

func TestActionState_String(t *testing.T) {
	cases := map[ActionState]string{
		ActionConstructed: "constructed",
		ActionEntering:    "entering",
		ActionActive:      "active",
		ActionSleeping:    "sleeping",
		ActionLeaving:     "leaving",
		ActionDisposed:    "disposed",
		ActionState(99):   "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}

// TestActionCache tests cache ownership checks
// Main test items:
// 1. Put ignores nil
// 2. Delete only removes the matching instance
// 3. Contains and Paths reflect the entries
func TestActionCache(t *testing.T) {
	c := NewActionCache()
	a, b := NewBaseAction(nil), NewBaseAction(nil)

	c.Put("/nil", nil)
	if c.Len() != 0 {
		t.Errorf("nil Put stored an entry")
	}

	c.Put("/b", b)
	c.Put("/a", a)
	if got, ok := c.Get("/a"); !ok || got != a {
		t.Errorf("Get(/a) = %v, %v", got, ok)
	}
	if !c.Contains(b) {
		t.Error("Contains(b) = false")
	}
	if !equalStrings(c.Paths(), []string{"/a", "/b"}) {
		t.Errorf("Paths = %v", c.Paths())
	}

	if c.Delete("/a", b) {
		t.Error("Delete with a different instance should not remove the entry")
	}
	if !c.Delete("/a", a) {
		t.Error("Delete with the cached instance should remove the entry")
	}
	if c.Contains(a) || c.Len() != 1 {
		t.Errorf("after Delete: contains(a)=%v len=%d", c.Contains(a), c.Len())
	}
}

// TestPendingSlot tests last-write-wins storage
// Main test items:
// 1. Put on an empty slot does not report a replacement
// 2. A second Put replaces and reports it
// 3. Take empties the slot
func TestPendingSlot(t *testing.T) {
	var s PendingSlot
	if !s.Empty() {
		t.Fatal("new slot not empty")
	}
	if _, ok := s.Take(); ok {
		t.Error("Take on empty slot returned a route")
	}

	if s.Put(Route{Path: "/a"}) {
		t.Error("first Put reported a replacement")
	}
	if !s.Put(Route{Path: "/b"}) {
		t.Error("second Put did not report a replacement")
	}
	if r, ok := s.Peek(); !ok || r.Path != "/b" {
		t.Errorf("Peek = %v, %v", r, ok)
	}

	r, ok := s.Take()
	if !ok || r.Path != "/b" {
		t.Errorf("Take = %v, %v; want /b", r, ok)
	}
	if !s.Empty() {
		t.Error("slot not empty after Take")
	}
}

// TestRoute_CloneIsDeep tests that accepted routes are isolated
func TestRoute_CloneIsDeep(t *testing.T) {
	r := Route{
		Path:       "/a",
		Query:      Query{"q": "1"},
		Transition: Transition{Type: "slide", Params: map[string]any{"ms": 200}},
		Options:    Options{Extra: map[string]any{"from": "menu"}},
	}
	c := r.Clone()
	r.Query["q"] = "2"
	r.Transition.Params["ms"] = 0
	r.Options.Extra["from"] = "x"

	if c.Query["q"] != "1" || c.Transition.Params["ms"] != 200 || c.Options.Extra["from"] != "menu" {
		t.Errorf("clone shares maps with original: %+v", c)
	}
}

// TestTransition_Merge tests transition overlay
// Main test items:
// 1. A non-empty Type overrides
// 2. Params merge key by key without mutating the base
func TestTransition_Merge(t *testing.T) {
	base := Transition{Type: "slide", Params: map[string]any{"ms": 200, "dir": "left"}}

	out := base.merge(&Transition{Params: map[string]any{"dir": "right"}})
	if out.Type != "slide" || out.Params["dir"] != "right" || out.Params["ms"] != 200 {
		t.Errorf("merge = %+v", out)
	}
	if base.Params["dir"] != "left" {
		t.Error("merge mutated the base params")
	}

	out = base.merge(&Transition{Type: "fade"})
	if out.Type != "fade" {
		t.Errorf("Type = %q, want fade", out.Type)
	}
	if got := base.merge(nil); got.Type != "slide" {
		t.Errorf("merge(nil) = %+v", got)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
