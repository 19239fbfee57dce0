package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Swind/go-nav-runner/config"
	"github.com/Swind/go-nav-runner/core"
	obs "github.com/Swind/go-nav-runner/observability/prometheus"
	"github.com/Swind/go-nav-runner/router"
	"github.com/Swind/go-nav-runner/viewport"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v2"
)

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Replay a navigation script",

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Navigator config file (TOML)",
			},
			&cli.StringFlag{
				Name:     "routes",
				Aliases:  []string{"r"},
				Required: true,
				Usage:    "Route manifest (TOML)",
			},
			&cli.StringFlag{
				Name:    "script",
				Aliases: []string{"s"},
				Usage:   "Navigation script (TOML)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Recovery timeout, overrides the config file",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address",
			},
			&cli.BoolFlag{
				Name:  "dump-metrics",
				Usage: "Print navigation counters after the run",
			},
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "Keep running after the script so metrics can be scraped",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Apply timeout changes from the config file while running",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
			},
		},

		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	// 1. Settings
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	logger, err := newLogger(cfg.Log, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	manifest, err := config.LoadRoutes(c.String("routes"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	routes, err := manifest.RouteConfigs(registry())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	var script Script
	if path := c.String("script"); path != "" {
		if script, err = LoadScript(path); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
	}

	// 2. Wiring
	reg := prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter(cfg.Metrics.Namespace, reg, obs.ExporterOptions{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	var initial map[string]any
	if script.Initial != nil {
		initial = map[string]any{cfg.InitialDataKey: script.Initial}
	}
	r := router.NewMemory(cfg.Path, logger)
	v := viewport.NewHeadless(viewport.Options{
		Transition:  cfg.Viewport.Transition,
		Duration:    cfg.TransitionDuration(),
		InitialData: initial,
		Templates:   cfg.Template,
		Logger:      logger,
	})
	nav := core.NewNavigator(r, v, cfg.NavigatorConfig("navsim", logger, exporter))
	defer nav.Shutdown()

	out := &syncWriter{w: c.App.Writer}
	if names := v.Templates(); len(names) > 0 {
		out.Printf("templates %s\n", strings.Join(names, ","))
	}
	subscribeEvents(nav, out)

	if c.Bool("watch") && c.String("config") != "" {
		w, err := config.Watch(c.String("config"), logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		w.Bind(nav)
	}

	if addr := cfg.Metrics.Addr; addr != "" {
		stop, err := serveMetrics(addr, reg, nav, out)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
		defer stop()
	}

	// 3. Replay
	if err := nav.Load(routes...); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if cfg.Route {
		if err := nav.Start(cfg.Index); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	// The initial page settles before the script runs.
	if err := waitIdle(ctx, nav, cfg.Timeout()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: navigator did not settle: %v", err), 1)
	}
	if err := replay(ctx, nav, r, script.Steps, cfg.Timeout(), out); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if err := waitIdle(ctx, nav, cfg.Timeout()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: navigator did not settle: %v", err), 1)
	}

	// 4. Report
	s := nav.Stats()
	out.Printf("stats current=%s completed=%d failed=%d superseded=%d replaced=%d recoveries=%d\n",
		s.CurrentPath, s.Completed, s.Failed, s.Superseded, s.Replaced, s.Recoveries)
	if c.Bool("dump-metrics") {
		if err := dumpMetrics(reg, out); err != nil {
			return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
		}
	}

	if hold := c.Duration("hold"); hold > 0 {
		select {
		case <-time.After(hold):
		case <-ctx.Done():
		}
	}
	return nil
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("timeout") {
		cfg.TimeoutMS = int(c.Duration("timeout") / time.Millisecond)
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (core.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return core.NewSlogLogger(slog.New(handler)), nil
}

func subscribeEvents(nav *core.Navigator, out *syncWriter) {
	nav.Subscribe(core.EventBeforeLoad, func(e core.Event) {
		out.Printf("beforeload %s\n", e.Route.Path)
	})
	nav.Subscribe(core.EventAfterLoad, func(e core.Event) {
		line := "afterload " + e.Route.Path
		if e.Current.Page != nil {
			if el, ok := e.Current.Page.Main().(*viewport.Element); ok {
				if title, ok := el.Data()["title"]; ok {
					line += fmt.Sprintf(" title=%v", title)
				}
			}
		}
		out.Printf("%s\n", line)
	})
	nav.Subscribe(core.EventError, func(e core.Event) {
		out.Printf("error %s: %v\n", e.Route.Path, e.Err)
	})
}

func replay(ctx context.Context, nav *core.Navigator, r *router.Memory, steps []Step, timeout time.Duration, out *syncWriter) error {
	for i, step := range steps {
		if d := step.Delay(); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var err error
		if step.Back {
			err = r.Back()
		} else {
			err = r.Navigate(step.URL, core.Options{NoCache: step.NoCache})
		}
		if err != nil {
			out.Printf("step %d %s: %v\n", i+1, step, err)
			continue
		}

		if step.Wait {
			if err := waitIdle(ctx, nav, timeout); err != nil {
				return fmt.Errorf("step %d %s: %w", i+1, step, err)
			}
		}
	}
	return nil
}

// waitIdle bounds WaitIdle by a multiple of the recovery timeout.
func waitIdle(ctx context.Context, nav *core.Navigator, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 10*timeout+time.Second)
	defer cancel()
	return nav.WaitIdle(ctx)
}

func serveMetrics(addr string, reg *prom.Registry, nav *core.Navigator, out *syncWriter) (func(), error) {
	poller, err := obs.NewSnapshotPoller(reg, 50*time.Millisecond)
	if err != nil {
		return nil, err
	}
	poller.AddNavigator(nav.Name(), nav)
	poller.Start(context.Background())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		poller.Stop()
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(ln)
	}()
	out.Printf("metrics listening on http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		poller.Stop()
	}, nil
}

// dumpMetrics prints every counter sample in the registry.
func dumpMetrics(reg prom.Gatherer, out *syncWriter) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			out.Printf("%s%s %g\n", mf.GetName(), formatLabels(m.GetLabel()), m.GetCounter().GetValue())
		}
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// syncWriter serializes writes from the event loop and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}
