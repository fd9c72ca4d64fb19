package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/config"
	"github.com/marketloom/marketloom/internal/fusion"
	"github.com/marketloom/marketloom/internal/gate"
	"github.com/marketloom/marketloom/internal/schema"
)

// FuseOptions holds flags for the fuse command.
type FuseOptions struct {
	*RootOptions
	Symbol string // optional - fuse a single symbol only
	Config string
}

// FuseResult is the fuse command's output payload.
type FuseResult struct {
	Symbols    []string `json:"symbols"`
	Candidates int      `json:"candidates"`
}

// NewFuseCommand creates the fuse command.
func NewFuseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FuseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fuse",
		Short: "Fuse published signals into candidates",
		Long: `Score the signals already on the store and publish trade candidates.

The active fusion plan is validated and published first, then every symbol
with signals (or just --symbol) is fused. Each fusion writes a trace record
and, when the composite score clears the plan threshold, a candidate.

Example:
  marketloom fuse --store ./bus
  marketloom fuse --store ./bus --symbol BHP.ASX`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuse(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Symbol, "symbol", "", "fuse a single symbol only")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML configuration")

	return cmd
}

func runFuse(opts *FuseOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	st, closeStore, err := openStore(opts.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	symbols, err := fuseSymbols(st, opts.Symbol)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list symbols", err)
	}

	g := gate.New(st)
	if res, err := g.PublishPlan(cfg.Plan); err != nil {
		return WrapExitError(ExitCommandError, "failed to publish fusion plan", err)
	} else if !res.OK() {
		return WrapExitError(ExitFailure, fmt.Sprintf("fusion plan rejected: %v", res.Errors), nil)
	}

	before, err := st.ReadAll(schema.TopicCandidate)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read candidates", err)
	}
	for _, symbol := range symbols {
		formatter.VerboseLog("fusing %s", symbol)
		if err := fusion.Fuse(st, symbol, cfg.Plan); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("fusion failed for %s", symbol), err)
		}
	}
	after, err := st.ReadAll(schema.TopicCandidate)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read candidates", err)
	}

	result := FuseResult{Symbols: symbols, Candidates: len(after) - len(before)}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("Fused %d symbol(s), %d new candidate(s)",
		len(result.Symbols), result.Candidates))
}

// fuseSymbols lists symbols carrying signals, or just the one requested.
func fuseSymbols(st bus.Store, only string) ([]string, error) {
	if only != "" {
		return []string{only}, nil
	}
	envs, err := st.ReadAll(schema.TopicSignal)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, env := range envs {
		if s := bus.String(env, "symbol"); s != "" {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
