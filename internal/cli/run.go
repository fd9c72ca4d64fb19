package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/config"
	"github.com/marketloom/marketloom/internal/pipeline"
	"github.com/marketloom/marketloom/internal/schema"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config string
}

// RunResult is the run command's output payload.
type RunResult struct {
	Bars       int `json:"bars"`
	Signals    int `json:"signals"`
	Candidates int `json:"candidates"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the batch pipeline over the store",
		Long: `Run one batch pass over the topic store.

Ticks already on the store are aggregated into OHLCV bars, indicators and
feature snapshots are derived, the rule engines fire, and signals are fused
into candidates per symbol.

Example:
  marketloom run --store ./bus
  marketloom run --store ./loom.db --config ./marketloom.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML configuration")

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	st, closeStore, err := openStore(opts.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	slog.Info("pipeline starting", "store", opts.Store)
	runner := pipeline.NewRunner(st, cfg)
	if err := runner.Run(); err != nil {
		return WrapExitError(ExitFailure, "pipeline run failed", err)
	}

	result, err := summarize(st)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run summary", err)
	}
	slog.Info("pipeline finished",
		"bars", result.Bars, "signals", result.Signals, "candidates", result.Candidates)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("Run complete: %d bar(s), %d signal(s), %d candidate(s)",
		result.Bars, result.Signals, result.Candidates))
}

func summarize(st bus.Store) (RunResult, error) {
	var result RunResult
	counts := []struct {
		topic string
		dst   *int
	}{
		{schema.TopicBar, &result.Bars},
		{schema.TopicSignal, &result.Signals},
		{schema.TopicCandidate, &result.Candidates},
	}
	for _, c := range counts {
		envs, err := st.ReadAll(c.topic)
		if err != nil {
			return RunResult{}, err
		}
		*c.dst = len(envs)
	}
	return result, nil
}
