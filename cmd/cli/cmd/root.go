// Package cmd implements the perf-annotate command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/perf-annotate/pkg/config"
	"github.com/perf-annotate/pkg/telemetry"
	"github.com/perf-annotate/pkg/utils"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath   string
	verbose      bool
	inputs       []string
	format       string
	countFormat  string
	minPercent   float64
	limit        int
	source       string
	pathPrefix   string
	threadPrefix bool
	strict       bool
	output       string
	upload       string
}

// app is the state a command runs with once the root command has loaded the
// configuration.
type app struct {
	opts     *globalOptions
	cfg      *config.Config
	logger   utils.Logger
	stdin    io.Reader
	stdout   io.Writer
	shutdown telemetry.ShutdownFunc
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   BinName(),
		Short: "Rank the hottest lines, symbols and callers of a sampled profile",
		Long: `perf-annotate loads sampled profiles (perf collapsed stacks or pprof) and
answers three questions about them: which source lines are hottest, which
functions are hottest, and which call sites lead into a region of code.

Profiles are read from local files or Tencent COS ("cos://key"), optionally
gzip or zstd compressed. Each -i input may be prefixed with an event name
("cycles=perf.folded") to load several events side by side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdown == nil {
				return nil
			}
			if err := a.shutdown(context.Background()); err != nil {
				a.logger.Warn("Failed to flush traces: %v", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: ./perf-annotate.yaml, ~/.config/perf-annotate/)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringArrayVarP(&opts.inputs, "input", "i", nil, "Profile input: path, cos://key or event=path (repeatable)")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output: text, json, pick or tui")
	flags.StringVar(&opts.countFormat, "count-format", "", "Count rendering: percent, count or both")
	flags.Float64Var(&opts.minPercent, "min-percent", 0, "Hide entries below this share of the total")
	flags.IntVarP(&opts.limit, "limit", "n", 0, "Show at most n entries (0: all)")
	flags.StringVar(&opts.source, "source", "", "Where bare input paths are read from: local or cos")
	flags.StringVar(&opts.pathPrefix, "path-prefix", "", "Directory the profile's file paths are relative to")
	flags.BoolVar(&opts.threadPrefix, "thread-prefix", false, "Collapsed stacks start with a thread name")
	flags.BoolVar(&opts.strict, "strict", false, "Fail on malformed profile input")
	flags.StringVarP(&opts.output, "output", "o", "", "Also write the table as JSON to this file (.gz/.zst compress)")
	flags.StringVar(&opts.upload, "upload", "", "Also upload the JSON table to this location (cos://key or path)")

	binName := BinName()
	root.Example = `  # Hottest source lines of a perf profile
  ` + binName + ` lines -i perf.folded

  # Hottest functions of one sample type of a pprof profile
  ` + binName + ` symbols -i cpu=cpu.pb.gz

  # Callers of lines 40-58 of mesh.cpp, pick one and open it in $EDITOR
  ` + binName + ` callers -i perf.folded --file src/mesh.cpp --begin 40 --end 58 -f pick

  # Callers of the function enclosing line 57
  ` + binName + ` callers -i perf.folded --file src/mesh.cpp --line 57

  # Serve the queries to an editor agent over MCP
  ` + binName + ` mcp -i perf.folded`

	root.AddCommand(
		newLinesCommand(a),
		newSymbolsCommand(a),
		newCallersCommand(a),
		newEventsCommand(a),
		newMCPCommand(a),
		newVersionCommand(),
	)
	return root
}

// init loads the configuration, applies flag overrides and sets up logging
// and tracing.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("min-percent") {
		cfg.Display.MinPercent = a.opts.minPercent
	}
	if flags.Changed("count-format") {
		cfg.Display.Format = a.opts.countFormat
	}
	if flags.Changed("limit") {
		cfg.Display.Limit = a.opts.limit
	}
	if flags.Changed("source") {
		cfg.Profile.Source = a.opts.source
	}
	if flags.Changed("path-prefix") {
		cfg.Profile.PathPrefix = a.opts.pathPrefix
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := utils.ParseLogLevel(cfg.Log.Level)
	if a.opts.verbose {
		level = utils.LevelDebug
	}
	a.logger = utils.NewDefaultLogger(level, cmd.ErrOrStderr())
	if err != nil {
		a.logger.Warn("%v, using %s", err, level)
	}

	a.stdin = cmd.InOrStdin()
	a.stdout = cmd.OutOrStdout()

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.LoadFromEnv(Version))
	if err != nil {
		a.logger.Warn("Tracing disabled: %v", err)
	}
	a.shutdown = shutdown
	return nil
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
