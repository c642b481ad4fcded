package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"

	"fintrack/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	var commands cli.Commands
	ctx := kong.Parse(&commands,
		kong.Name("fintrack-admin"),
		kong.Description("Operator commands for a fintrack database."),
		kong.UsageOnError(),
		kong.Bind(&commands.Globals),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
