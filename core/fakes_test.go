package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Router fake
// =============================================================================

type fakeRouter struct {
	mu       sync.Mutex
	handlers map[string]Handler
	resets   []string
	addErr   error
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{handlers: make(map[string]Handler)}
}

func (r *fakeRouter) Add(path string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	if _, ok := r.handlers[path]; ok {
		return fmt.Errorf("fake router: %s already added", path)
	}
	r.handlers[path] = handler
	return nil
}

func (r *fakeRouter) Reset(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, path)
}

func (r *fakeRouter) match(path string, query Query, opts Options) bool {
	r.mu.Lock()
	h, ok := r.handlers[path]
	r.mu.Unlock()
	if ok {
		h(path, query, opts)
	}
	return ok
}

func (r *fakeRouter) Resets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.resets...)
}

// =============================================================================
// Viewport fake
// =============================================================================

type fakePage struct {
	path   string
	cached bool

	mu             sync.Mutex
	listeners      map[string][]func()
	entered        bool
	transitionType string
	transition     Transition
	removed        bool
	forced         bool
	enterErr       error
}

func (p *fakePage) Enter(ctx context.Context, transitionType string, transition Transition) error {
	p.mu.Lock()
	p.entered = true
	p.transitionType = transitionType
	p.transition = transition
	err := p.enterErr
	listeners := append([]func(){}, p.listeners[SignalAfterEnter]...)
	p.mu.Unlock()

	if err != nil {
		return err
	}
	for _, l := range listeners {
		l()
	}
	return nil
}

func (p *fakePage) Remove(force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = true
	p.forced = force
}

func (p *fakePage) On(signal string, listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[signal] = append(p.listeners[signal], listener)
}

func (p *fakePage) Main() any {
	return "main:" + p.path
}

func (p *fakePage) TransitionType() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transitionType
}

func (p *fakePage) Removed() (removed, forced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removed, p.forced
}

type fakeViewport struct {
	mu       sync.Mutex
	pages    []*fakePage
	enterErr map[string]error
}

func newFakeViewport() *fakeViewport {
	return &fakeViewport{enterErr: make(map[string]error)}
}

func (v *fakeViewport) Load(path string, opts LoadOptions) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := &fakePage{
		path:      path,
		cached:    opts.Cached,
		listeners: make(map[string][]func()),
		enterErr:  v.enterErr[path],
	}
	v.pages = append(v.pages, p)
	return p
}

func (v *fakeViewport) failEnter(path string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enterErr[path] = err
}

func (v *fakeViewport) Pages() []*fakePage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*fakePage(nil), v.pages...)
}

func (v *fakeViewport) LoadedPaths() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	paths := make([]string, 0, len(v.pages))
	for _, p := range v.pages {
		paths = append(paths, p.path)
	}
	return paths
}

// =============================================================================
// Action fake
// =============================================================================

// recordingAction records lifecycle calls. Enter blocks on gate when set
// and fails with enterErr when set.
type recordingAction struct {
	*BaseAction
	name string

	mu       sync.Mutex
	calls    []string
	gate     chan struct{}
	entering chan struct{}
	enterErr error
}

func newRecordingAction(name string) *recordingAction {
	return &recordingAction{BaseAction: NewBaseAction(nil), name: name}
}

func (a *recordingAction) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *recordingAction) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *recordingAction) Count(call string) int {
	n := 0
	for _, c := range a.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (a *recordingAction) Enter(ctx context.Context, path string, query Query, main any, opts Options) error {
	a.record("enter")
	_ = a.BaseAction.Enter(ctx, path, query, main, opts)

	a.mu.Lock()
	gate, entering, err := a.gate, a.entering, a.enterErr
	a.mu.Unlock()

	if entering != nil {
		close(entering)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (a *recordingAction) Ready()    { a.record("ready"); a.BaseAction.Ready() }
func (a *recordingAction) Complete() { a.record("complete"); a.BaseAction.Complete() }
func (a *recordingAction) Sleep()    { a.record("sleep"); a.BaseAction.Sleep() }
func (a *recordingAction) Leave()    { a.record("leave"); a.BaseAction.Leave() }
func (a *recordingAction) Dispose()  { a.record("dispose"); a.BaseAction.Dispose() }
func (a *recordingAction) Wakeup(path string, query Query, opts Options) {
	a.record("wakeup")
	a.BaseAction.Wakeup(path, query, opts)
}

// actionFactory builds recordingActions and remembers every instance.
type actionFactory struct {
	mu      sync.Mutex
	name    string
	built   []*recordingAction
	prepare func(a *recordingAction)
}

func (f *actionFactory) New(cfg ActionConfig) Action {
	a := newRecordingAction(f.name)
	if f.prepare != nil {
		f.prepare(a)
	}
	f.mu.Lock()
	f.built = append(f.built, a)
	f.mu.Unlock()
	return a
}

func (f *actionFactory) Built() []*recordingAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*recordingAction(nil), f.built...)
}

func (f *actionFactory) Spec() ActionSpec {
	return WithFactory(f.New, ActionConfig{"name": f.name})
}

// =============================================================================
// Event recorder
// =============================================================================

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func recordEvents(n *Navigator) *eventRecorder {
	rec := &eventRecorder{}
	for _, typ := range []EventType{EventBeforeLoad, EventBeforeTransition, EventAfterLoad, EventError} {
		n.Subscribe(typ, func(e Event) {
			rec.mu.Lock()
			rec.events = append(rec.events, e)
			rec.mu.Unlock()
		})
	}
	return rec
}

// Trace returns "type path" entries in publish order.
func (r *eventRecorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, string(e.Type)+" "+e.Route.Path)
	}
	return out
}

func (r *eventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// =============================================================================
// Helpers
// =============================================================================

type recordingPanicHandler struct {
	mu      sync.Mutex
	sources []string
}

func (h *recordingPanicHandler) HandlePanic(ctx context.Context, source string, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sources = append(h.sources, source)
}

func (h *recordingPanicHandler) Sources() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sources...)
}

func newTestNavigator(t *testing.T, cfg *NavigatorConfig) (*Navigator, *fakeRouter, *fakeViewport) {
	t.Helper()
	router := newFakeRouter()
	viewport := newFakeViewport()
	if cfg == nil {
		cfg = &NavigatorConfig{Timeout: 5 * time.Second}
	}
	n := NewNavigator(router, viewport, cfg)
	t.Cleanup(n.Shutdown)
	return n, router, viewport
}

func waitIdle(t *testing.T, n *Navigator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle failed: %v", err)
	}
}

func waitClosed(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func equalStrings(a, b []string) bool {
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

var errBoom = errors.New("boom")
