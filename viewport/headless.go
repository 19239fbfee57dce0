// Package viewport provides a headless page engine for the navigator.
//
// Headless keeps an in-memory model of the page stack: which page is on
// screen, which cached pages are parked off screen, and what was inserted
// or removed. It runs no rendering; a transition is a configurable delay.
package viewport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Swind/go-nav-runner/core"
)

// Options configures a Headless viewport.
type Options struct {
	// Transition is the effect used when a navigation names none.
	// Empty disables transitions by default.
	Transition string

	// Duration is how long a transition takes. Navigations without an
	// effective transition settle immediately.
	Duration time.Duration

	// InitialData is handed to the first page loaded, then dropped.
	InitialData map[string]any

	// Templates are preloaded once and offered to every page element.
	Templates []string

	Logger core.Logger
}

// RecordKind classifies a viewport record.
type RecordKind string

const (
	RecordLoad   RecordKind = "load"
	RecordEnter  RecordKind = "enter"
	RecordPark   RecordKind = "park"
	RecordRemove RecordKind = "remove"
)

// Record is one page operation, in the order it happened.
type Record struct {
	Kind       RecordKind
	PageID     int
	Path       string
	Transition string
	Force      bool
}

// Element is the page root handed to Action.Enter as main.
type Element struct {
	PageID    int
	Path      string
	Templates []string

	mu   sync.Mutex
	data map[string]any
}

// Data returns the first-screen data attached to the element, if any.
func (e *Element) Data() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// Set stores a value on the element, the way an Action renders into it.
func (e *Element) Set(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.data == nil {
		e.data = make(map[string]any)
	}
	e.data[key] = value
}

// Headless is an in-memory core.Viewport.
type Headless struct {
	opts   Options
	logger core.Logger

	mu          sync.Mutex
	nextID      int
	active      *Page
	parked      map[string]*Page
	records     []Record
	failures    map[string]error
	delays      map[string]time.Duration
	initialData map[string]any
	templates   []string
}

var _ core.Viewport = (*Headless)(nil)

// NewHeadless creates a Headless viewport.
func NewHeadless(opts Options) *Headless {
	logger := opts.Logger
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	templates := append([]string(nil), opts.Templates...)
	if len(templates) > 0 {
		logger.Info("Templates preloaded", core.F("templates", templates))
	}
	return &Headless{
		opts:        opts,
		logger:      logger,
		parked:      make(map[string]*Page),
		failures:    make(map[string]error),
		delays:      make(map[string]time.Duration),
		initialData: opts.InitialData,
		templates:   templates,
	}
}

// Templates returns the preloaded template names.
func (v *Headless) Templates() []string {
	return append([]string(nil), v.templates...)
}

// Load creates a page for path. The page is not on screen until Enter.
func (v *Headless) Load(path string, opts core.LoadOptions) core.Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextID++
	p := &Page{
		viewport:  v,
		id:        v.nextID,
		path:      path,
		cached:    opts.Cached,
		main:      &Element{PageID: v.nextID, Path: path, Templates: v.templates, data: v.initialData},
		listeners: make(map[string][]func()),
	}
	v.initialData = nil
	v.records = append(v.records, Record{Kind: RecordLoad, PageID: p.id, Path: path})
	return p
}

// FailEnter makes every later Enter of a page for path fail with err.
// A nil err clears the failure.
func (v *Headless) FailEnter(path string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		delete(v.failures, path)
		return
	}
	v.failures[path] = err
}

// SetDelay overrides the transition duration for pages of path.
func (v *Headless) SetDelay(path string, d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delays[path] = d
}

// Active returns the path of the page on screen.
func (v *Headless) Active() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return "", false
	}
	return v.active.path, true
}

// Parked returns the number of cached pages kept off screen.
func (v *Headless) Parked() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.parked)
}

// Records returns the page operations so far.
func (v *Headless) Records() []Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Record(nil), v.records...)
}

func (v *Headless) enter(ctx context.Context, p *Page, transitionType string) error {
	v.mu.Lock()
	failure := v.failures[p.path]
	delay, overridden := v.delays[p.path]
	v.mu.Unlock()

	if transitionType == "" {
		transitionType = v.opts.Transition
	}
	if !overridden {
		delay = 0
		if transitionType != "" {
			delay = v.opts.Duration
		}
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failure != nil {
		return fmt.Errorf("enter %s: %w", p.path, failure)
	}

	v.mu.Lock()
	prev := v.active
	if prev != nil && prev != p {
		if prev.cached {
			v.parked[prev.path] = prev
			v.records = append(v.records, Record{Kind: RecordPark, PageID: prev.id, Path: prev.path})
		} else {
			prev.removed = true
			v.records = append(v.records, Record{Kind: RecordRemove, PageID: prev.id, Path: prev.path})
		}
	}
	if parked, ok := v.parked[p.path]; ok && parked != p {
		parked.removed = true
		v.records = append(v.records, Record{Kind: RecordRemove, PageID: parked.id, Path: parked.path})
	}
	delete(v.parked, p.path)
	v.active = p
	v.records = append(v.records, Record{Kind: RecordEnter, PageID: p.id, Path: p.path, Transition: transitionType})
	v.mu.Unlock()

	v.logger.Debug("Page entered", core.F("path", p.path), core.F("transition", transitionType))
	return nil
}

func (v *Headless) remove(p *Page, force bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if p.removed {
		return
	}
	p.removed = true
	if v.active == p {
		v.active = nil
	}
	if v.parked[p.path] == p {
		delete(v.parked, p.path)
	}
	v.records = append(v.records, Record{Kind: RecordRemove, PageID: p.id, Path: p.path, Force: force})
}

// =============================================================================
// Page
// =============================================================================

// Page is a Headless page handle.
type Page struct {
	viewport *Headless
	id       int
	path     string
	cached   bool
	main     *Element

	mu        sync.Mutex
	listeners map[string][]func()

	// guarded by viewport.mu
	removed bool
}

var _ core.Page = (*Page)(nil)

// ID returns the page identifier.
func (p *Page) ID() int { return p.id }

// Path returns the page path.
func (p *Page) Path() string { return p.path }

// Enter puts the page on screen and emits afterenter once it settled.
func (p *Page) Enter(ctx context.Context, transitionType string, transition core.Transition) error {
	if err := p.viewport.enter(ctx, p, transitionType); err != nil {
		return err
	}

	p.mu.Lock()
	listeners := append([]func(){}, p.listeners[core.SignalAfterEnter]...)
	p.mu.Unlock()
	for _, l := range listeners {
		l()
	}
	return nil
}

// Remove takes the page off screen and forgets it.
func (p *Page) Remove(force bool) {
	p.viewport.remove(p, force)
}

// On registers listener for signal.
func (p *Page) On(signal string, listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[signal] = append(p.listeners[signal], listener)
}

// Main returns the page root element.
func (p *Page) Main() any {
	return p.main
}
