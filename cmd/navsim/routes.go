package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Swind/go-nav-runner/config"
	"github.com/urfave/cli/v2"
)

func RoutesCommand() *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "Inspect and create route manifests",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the routes of a manifest",
				Flags:  []cli.Flag{routesFlag()},
				Action: routesListAction,
			},
			{
				Name:   "init",
				Usage:  "Write a sample manifest",
				Flags:  []cli.Flag{routesFlag()},
				Action: routesInitAction,
			},
		},
	}
}

func routesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "routes",
		Aliases:  []string{"r"},
		Required: true,
		Usage:    "Route manifest (TOML)",
	}
}

func routesListAction(c *cli.Context) error {
	manifest, err := config.LoadRoutes(c.String("routes"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	if _, err := manifest.RouteConfigs(registry()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tACTION\tCACHED\tTRANSITION")
	for _, e := range manifest.Routes {
		action := e.Action
		if action == "" {
			action = "-"
		}
		transition := e.Transition
		if transition == "" {
			transition = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", e.Path, action, e.Cached, transition)
	}
	return tw.Flush()
}

func routesInitAction(c *cli.Context) error {
	path := c.String("routes")
	if err := config.WriteRoutes(path, sampleManifest()); err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	fmt.Fprintf(c.App.Writer, "✓ Wrote %s\n", path)
	return nil
}

func sampleManifest() config.RouteManifest {
	return config.RouteManifest{
		Version: 1,
		Routes: []config.RouteEntry{
			{Path: "/index", Action: "page", Cached: true, Config: map[string]any{"title": "Home"}},
			{Path: "/detail", Action: "page", Transition: "slide", Config: map[string]any{"title": "Detail"}},
			{Path: "/report", Action: "slow", Config: map[string]any{"delay_ms": 200}},
			{Path: "/broken", Action: "fail"},
		},
	}
}
