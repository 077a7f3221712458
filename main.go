package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Config string `help:"Config file path." type:"path" default:"config/config.json" env:"NAVIA_CONFIG"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API and the nightly scheduler." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Create or update database tables and exit."`
	Streaks struct {
		Refresh StreaksRefreshCmd `cmd:"" help:"Recompute stored streaks for one day."`
	} `cmd:"" help:"Maintain practice streaks."`
	Problems struct {
		Import ProblemsImportCmd `cmd:"" help:"Load Blind 75 problems from a JSON file."`
	} `cmd:"" help:"Manage the technical practice problem bank."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("navia"),
		kong.Description("Career coaching backend: practice streaks, leaderboards, job tracking."),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&Globals{ConfigPath: CLI.Config}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
