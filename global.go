package navrunner

import (
	"sync"

	"github.com/Swind/go-nav-runner/core"
)

// =============================================================================
// Global Navigator Helper (Singleton)
// =============================================================================

var (
	globalNavigator *core.Navigator
	globalMu        sync.Mutex
)

// InitGlobalNavigator creates the process-wide navigator bound to router
// and viewport. Later calls are no-ops until ShutdownGlobalNavigator.
func InitGlobalNavigator(router core.Router, viewport core.Viewport, cfg *core.NavigatorConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalNavigator != nil {
		return // Already initialized
	}

	globalNavigator = core.NewNavigator(router, viewport, cfg)
}

// GlobalNavigator returns the global navigator instance.
// It panics if InitGlobalNavigator has not been called.
func GlobalNavigator() *core.Navigator {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalNavigator == nil {
		panic("GlobalNavigator not initialized. Call InitGlobalNavigator() first.")
	}
	return globalNavigator
}

// ShutdownGlobalNavigator stops the global navigator.
func ShutdownGlobalNavigator() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalNavigator != nil {
		globalNavigator.Shutdown()
		globalNavigator = nil
	}
}

// Load registers routes with the global navigator.
func Load(routes ...core.RouteConfig) error {
	return GlobalNavigator().Load(routes...)
}

// Start starts the global navigator's router.
func Start(index string) error {
	return GlobalNavigator().Start(index)
}

// Subscribe registers handler on the global navigator.
func Subscribe(eventType core.EventType, handler core.EventHandler) string {
	return GlobalNavigator().Subscribe(eventType, handler)
}
