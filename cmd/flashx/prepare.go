package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"github.com/limkeunhak/FlashX"
)

// prepareCmd implements subcommands.Command for the "prepare" command.
type prepareCmd struct {
	config configFlags
}

// Name implements subcommands.Command.Name.
func (*prepareCmd) Name() string {
	return "prepare"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*prepareCmd) Synopsis() string {
	return "fill the backing files with the verification pattern"
}

// Usage implements subcommands.Command.Usage.
func (*prepareCmd) Usage() string {
	return `prepare [flags]

Writes the deterministic pattern over the whole capacity of the file set so
that later verified reads have an oracle.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (p *prepareCmd) SetFlags(f *flag.FlagSet) {
	p.config.SetFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (p *prepareCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	logger := args[0].(*flashx.Logger)
	cfg, err := p.config.load(f)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return subcommands.ExitUsageError
	}

	n, err := flashx.Prepare(ctx, cfg, flashx.WithLogger(logger))
	if err == nil {
		fmt.Printf("prepared %s across %d file(s)\n", humanize.IBytes(uint64(n)), len(cfg.Files))
	}
	return exitStatus(logger, "prepare failed", err)
}
