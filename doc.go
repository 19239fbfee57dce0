// Package navrunner sequences page navigations for a single-page application.
//
// A Navigator turns router matches into page transitions and manages the
// lifecycle of the per-route controller objects (Actions) behind them.
// Only one transition is in flight at a time; requests that arrive in the
// meantime are not queued but collapse into a single pending slot, so the
// newest request is the one served next.
//
// # Quick Start
//
// Initialize the global navigator at application startup:
//
//	r := router.NewMemory("/", nil)
//	v := viewport.NewHeadless(viewport.Options{})
//	navrunner.InitGlobalNavigator(r, v, nil)
//	defer navrunner.ShutdownGlobalNavigator()
//
// Register routes and start:
//
//	nav := navrunner.GlobalNavigator()
//	nav.Load(
//		navrunner.RouteConfig{Path: "/index", Action: navrunner.WithFactory(newHome, nil), Cached: true},
//		navrunner.RouteConfig{Path: "/detail", Action: navrunner.WithConfig(nil)},
//	)
//	nav.Start("index")
//
// # Key Concepts
//
// EventLoop: the goroutine that owns all navigation state. Action.Enter and
// Page.Enter run on their own goroutines and report back to the loop.
//
// Action: a per-route controller. Embed *BaseAction and override the hooks
// you need: Enter, Ready, Complete, Sleep, Wakeup, Leave, Dispose.
//
// Gate: the Idle/Loading status register. A navigation holds it from the
// moment it leaves the pending slot until it settles. If the Action takes
// longer than the configured timeout to enter, the gate is reopened so newer
// navigations are not blocked.
//
// Cached routes: the Action of a route registered with Cached is put to
// sleep when the user navigates away and woken up on return instead of
// being rebuilt.
//
// # Events
//
// Subscribe to beforeload, beforetransition, afterload and error. Handlers
// run on the event loop, in subscription order, and must not block.
//
//	nav.Subscribe(navrunner.EventAfterLoad, func(e navrunner.Event) {
//		log.Println("loaded", e.Route.Path)
//	})
package navrunner
