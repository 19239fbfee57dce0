package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-nav-runner/config"
	"github.com/Swind/go-nav-runner/core"
	"github.com/Swind/go-nav-runner/viewport"
)

// errScripted is returned by the fail action.
var errScripted = errors.New("scripted failure")

// registry returns the action kinds a manifest may name.
//
//	page  stores config["title"] on the page element
//	slow  waits config["delay_ms"] before entering
//	fail  always fails to enter
func registry() config.Registry {
	return config.Registry{
		"page": newPageAction,
		"slow": newSlowAction,
		"fail": newFailAction,
	}
}

type pageAction struct {
	*core.BaseAction
}

func newPageAction(cfg core.ActionConfig) core.Action {
	return &pageAction{BaseAction: core.NewBaseAction(cfg)}
}

func (a *pageAction) Enter(ctx context.Context, path string, query core.Query, main any, opts core.Options) error {
	if el, ok := main.(*viewport.Element); ok {
		if title, ok := a.Config()["title"]; ok {
			el.Set("title", title)
		}
	}
	return a.BaseAction.Enter(ctx, path, query, main, opts)
}

type slowAction struct {
	*core.BaseAction
	delay time.Duration
}

func newSlowAction(cfg core.ActionConfig) core.Action {
	return &slowAction{
		BaseAction: core.NewBaseAction(cfg),
		delay:      durationMS(cfg["delay_ms"]),
	}
}

func (a *slowAction) Enter(ctx context.Context, path string, query core.Query, main any, opts core.Options) error {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.BaseAction.Enter(ctx, path, query, main, opts)
}

type failAction struct {
	*core.BaseAction
}

func newFailAction(cfg core.ActionConfig) core.Action {
	return &failAction{BaseAction: core.NewBaseAction(cfg)}
}

func (a *failAction) Enter(ctx context.Context, path string, query core.Query, main any, opts core.Options) error {
	if msg, ok := a.Config()["message"].(string); ok && msg != "" {
		return fmt.Errorf("%s: %w", msg, errScripted)
	}
	return errScripted
}

// durationMS reads a millisecond count decoded from TOML.
func durationMS(v any) time.Duration {
	switch n := v.(type) {
	case int64:
		return time.Duration(n) * time.Millisecond
	case int:
		return time.Duration(n) * time.Millisecond
	case float64:
		return time.Duration(n * float64(time.Millisecond))
	}
	return 0
}
