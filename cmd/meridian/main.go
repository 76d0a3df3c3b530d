package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/meridianchain/meridian/internal/node"
	"github.com/meridianchain/meridian/pkg/commands"
	"github.com/meridianchain/meridian/pkg/config"
	"github.com/meridianchain/meridian/pkg/runner"
)

var appInfo = runner.AppInfo{
	Name:           "Meridian Node",
	Version:        "0.3.1",
	Author:         "Meridian Labs <dev@meridian.network>",
	CopyrightStart: 2024,
	RuntimeID:      "meridian-12",
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	r, err := runner.New(appInfo, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build runner", zap.Error(err))
	}

	if err := run(r, logger, flag.Args()); err != nil {
		logger.Fatal("Exited with error", zap.Error(err))
	}
}

func run(r *runner.Runner, logger *zap.Logger, args []string) error {
	if len(args) == 0 {
		return r.RunNodeUntilExit(node.Initialize(logger))
	}

	sub, err := parseSubcommand(args)
	if err != nil {
		return err
	}
	return r.RunSubcommand(sub, node.NewBuilder(logger))
}

func parseSubcommand(args []string) (commands.Subcommand, error) {
	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	switch name {
	case "build-spec":
		cmd := &commands.BuildSpec{}
		fs.StringVar(&cmd.Output, "output", "", "destination file (stdout when empty)")
		fs.BoolVar(&cmd.IncludeBootnode, "bootnode", false, "advertise this node in the spec")
		return cmd, fs.Parse(rest)
	case "export-blocks":
		cmd := &commands.ExportBlocks{}
		fs.Uint64Var(&cmd.From, "from", 0, "first block to export")
		fs.Uint64Var(&cmd.To, "to", 0, "last block to export (best when 0)")
		fs.StringVar(&cmd.Output, "output", "", "destination file (stdout when empty)")
		return cmd, fs.Parse(rest)
	case "import-blocks":
		cmd := &commands.ImportBlocks{}
		fs.StringVar(&cmd.Input, "input", "", "source file (stdin when empty)")
		return cmd, fs.Parse(rest)
	case "check-block":
		cmd := &commands.CheckBlock{}
		fs.StringVar(&cmd.Ref, "block", "", "block number to check")
		return cmd, fs.Parse(rest)
	case "revert":
		cmd := &commands.Revert{Blocks: 256}
		fs.Uint64Var(&cmd.Blocks, "blocks", 256, "number of blocks to revert")
		return cmd, fs.Parse(rest)
	case "purge-chain":
		cmd := &commands.PurgeChain{}
		fs.BoolVar(&cmd.Yes, "yes", false, "skip confirmation")
		return cmd, fs.Parse(rest)
	case "export-state":
		cmd := &commands.ExportState{}
		fs.StringVar(&cmd.Output, "output", "", "destination file (stdout when empty)")
		return cmd, fs.Parse(rest)
	default:
		return nil, fmt.Errorf("unknown subcommand %q", name)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: meridian [flags] [subcommand]

Runs a node when no subcommand is given.

Subcommands:
  build-spec     render the chain specification as raw json
  export-blocks  export a block range as line-delimited json
  import-blocks  import line-delimited blocks
  check-block    re-verify a stored block
  revert         roll the chain back
  purge-chain    delete the chain database
  export-state   export current state as a chain spec

Flags:
`)
	flag.PrintDefaults()
}
