package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketloom/marketloom/internal/bus"
	"github.com/marketloom/marketloom/internal/config"
	"github.com/marketloom/marketloom/internal/pipeline"
	"github.com/marketloom/marketloom/internal/schema"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Config  string
	EpochMS int64
}

// ReplayResult holds the outcome of the determinism check.
type ReplayResult struct {
	Ticks         int    `json:"ticks"`
	EpochMS       int64  `json:"epoch_ms"`
	Fingerprint   string `json:"fingerprint"`
	Deterministic bool   `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the tick log and verify determinism",
		Long: `Replay the store's tick log through the full pipeline twice and verify
the runs are byte-for-byte identical.

Both runs use fresh in-memory stores, a clock pinned at --epoch (default:
the latest tick timestamp) and sequential audit IDs, so any difference
between their topic logs is real nondeterminism.

Exit codes:
  0 - replay is deterministic
  1 - determinism verification failed
  2 - command error (store not found, etc.)

Examples:
  marketloom replay --store ./bus
  marketloom replay --store ./loom.db --epoch 1700000000000 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplayCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML configuration")
	cmd.Flags().Int64Var(&opts.EpochMS, "epoch", 0, "pinned clock in epoch milliseconds (0 = derive from ticks)")

	return cmd
}

func runReplayCheck(opts *ReplayOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	st, closeStore, err := openStore(opts.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	ticks, err := st.ReadAll(schema.TopicTick)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ticks", err)
	}

	epoch := opts.EpochMS
	if epoch == 0 {
		epoch = latestTickMS(ticks)
	}

	ok, fingerprint, err := pipeline.VerifyDeterminism(ticks, cfg, epoch)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Ticks:         len(ticks),
		EpochMS:       epoch,
		Fingerprint:   fingerprint,
		Deterministic: ok,
	}
	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// latestTickMS picks the newest receive (or event) time across the ticks.
func latestTickMS(ticks []bus.Envelope) int64 {
	var latest int64
	for _, env := range ticks {
		ts := bus.Int(env, "recv_ts_ms")
		if ts == 0 {
			ts = bus.Int(env, "ts_ms")
		}
		latest = max(latest, ts)
	}
	return latest
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replayed %d tick(s) at epoch %d\n", result.Ticks, result.EpochMS)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
