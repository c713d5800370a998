package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dfid/devtracker-site/cmd/devtracker/commands"
	"github.com/dfid/devtracker-site/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("devtracker"),
		kong.Description("Build the Development Tracker static site from the project document store."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	os.Exit(commands.ExitCode(err, cli.Verbose))
}
