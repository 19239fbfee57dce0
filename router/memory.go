// Package router provides an in-memory URL router for the navigator.
//
// Memory keeps the current URL and a history stack instead of touching a
// browser location. It matches paths exactly; pattern syntax is out of scope.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Swind/go-nav-runner/core"
)

var (
	// ErrNotFound indicates no handler is registered for a path.
	ErrNotFound = errors.New("no route matches path")

	// ErrAlreadyRegistered indicates a path was added twice.
	ErrAlreadyRegistered = errors.New("path already registered")

	// ErrEmptyHistory indicates Back was called with nothing to go back to.
	ErrEmptyHistory = errors.New("history is empty")
)

// DefaultIndex is the file name appended to directory paths.
const DefaultIndex = "index"

// Memory is an exact-path router that keeps its URL state in memory.
// It is safe for concurrent use; handlers are called without locks held.
type Memory struct {
	mu       sync.Mutex
	handlers map[string]core.Handler
	index    string
	initial  string
	current  string
	history  []string
	started  bool
	logger   core.Logger
}

var (
	_ core.Router        = (*Memory)(nil)
	_ core.RouterStarter = (*Memory)(nil)
)

// NewMemory creates a router whose first dispatch on Start is initial.
// An empty initial starts at "/".
func NewMemory(initial string, logger core.Logger) *Memory {
	if initial == "" {
		initial = "/"
	}
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	return &Memory{
		handlers: make(map[string]core.Handler),
		index:    DefaultIndex,
		initial:  initial,
		logger:   logger,
	}
}

// Add registers handler for path.
func (m *Memory) Add(path string, handler core.Handler) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("add route: empty path")
	}
	if handler == nil {
		return fmt.Errorf("add route %q: nil handler", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handlers[path]; ok {
		return fmt.Errorf("add route %q: %w", path, ErrAlreadyRegistered)
	}
	m.handlers[path] = handler
	return nil
}

// Remove unregisters path.
func (m *Memory) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
}

// Start sets the index file name and dispatches the initial URL.
func (m *Memory) Start(index string) error {
	m.mu.Lock()
	if index != "" {
		m.index = strings.TrimPrefix(index, "/")
	}
	m.started = true
	initial := m.initial
	m.mu.Unlock()

	return m.Navigate(initial, core.Options{})
}

// Started reports whether Start has been called.
func (m *Memory) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Navigate pushes rawURL onto the history and dispatches it. Query values
// keep the first occurrence of each key.
func (m *Memory) Navigate(rawURL string, opts core.Options) error {
	path, query, err := m.parse(rawURL)
	if err != nil {
		return err
	}

	m.mu.Lock()
	handler, ok := m.handlers[path]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("No route matches", core.F("url", rawURL), core.F("path", path))
		return fmt.Errorf("navigate %q: %w", rawURL, ErrNotFound)
	}
	m.current = format(path, query)
	m.history = append(m.history, m.current)
	m.mu.Unlock()

	m.logger.Debug("Route matched", core.F("path", path), core.F("query", query))
	handler(path, query, opts)
	return nil
}

// Back drops the current URL and dispatches the previous one.
func (m *Memory) Back() error {
	m.mu.Lock()
	if len(m.history) < 2 {
		m.mu.Unlock()
		return ErrEmptyHistory
	}
	m.history = m.history[:len(m.history)-1]
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.mu.Unlock()

	return m.Navigate(prev, core.Options{})
}

// Reset rewrites the current URL to path without dispatching a match.
// The history entry of the abandoned URL is replaced.
func (m *Memory) Reset(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = path
	if n := len(m.history); n > 0 {
		m.history[n-1] = path
	} else {
		m.history = append(m.history, path)
	}
	m.logger.Debug("URL reset", core.F("path", path))
}

// Current returns the current URL.
func (m *Memory) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns the visited URLs, oldest first.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Paths returns the registered paths.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.handlers))
	for p := range m.handlers {
		paths = append(paths, p)
	}
	return paths
}

func (m *Memory) parse(rawURL string) (string, core.Query, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.HasSuffix(path, "/") {
		m.mu.Lock()
		path += m.index
		m.mu.Unlock()
	}

	var query core.Query
	if values := u.Query(); len(values) > 0 {
		query = make(core.Query, len(values))
		for k, vs := range values {
			if len(vs) > 0 {
				query[k] = vs[0]
			}
		}
	}
	return path, query, nil
}

func format(path string, query core.Query) string {
	if len(query) == 0 {
		return path
	}
	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}
	return path + "?" + values.Encode()
}
