// Command navsim replays navigation scripts against a headless viewport.
//
//	navsim run --routes routes.toml --script script.toml
//	navsim routes list --routes routes.toml
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "navsim",
		Usage: "Drive a navigator from route manifests and navigation scripts",
		Commands: []*cli.Command{
			RunCommand(),
			RoutesCommand(),
		},
	}
}
