package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketloom/marketloom/internal/ingest"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
}

// IngestResult is the ingest command's output payload.
type IngestResult struct {
	File      string `json:"file"`
	Published int    `json:"published"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <ticks.csv>",
		Short: "Publish ticks from a CSV file to the store",
		Long: `Read trade ticks from a CSV file and publish them to the tick topic.

The file needs a header row with at least ts_ms, symbol, price_ticks and
size. Optional columns: seq_no, venue, recv_ts_ms.

Example:
  marketloom ingest --store ./bus ./ticks.csv
  marketloom ingest --store ./loom.db ./ticks.csv --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, closeStore, err := openStore(opts.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	formatter.VerboseLog("ingesting %s into %s", path, opts.Store)
	n, err := ingest.CSV(st, path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("ingest failed after %d tick(s)", n), err)
	}

	if opts.Format == "json" {
		return formatter.Success(IngestResult{File: path, Published: n})
	}
	return formatter.Success(fmt.Sprintf("Published %d tick(s) from %s", n, path))
}
