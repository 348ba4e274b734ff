package main

import (
	"github.com/alecthomas/kong"

	"github.com/allenfrostline/PokerHandsDataset/internal/config"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Extract ExtractCmd       `cmd:"" help:"Unpack IRC database archives into file groups"`
	Parse   ParseCmd         `cmd:"" help:"Reconstruct hands from file groups into JSON lines"`
	Clean   CleanCmd         `cmd:"" help:"Keep hands with known pocket cards and re-key them"`
	Browse  BrowseCmd        `cmd:"" help:"Print cleaned hands in a readable layout"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("irchands"),
		kong.Description("Rebuild structured hand records from the IRC poker database"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_file": config.DefaultFile,
		},
		kong.Bind(&cli.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
