package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CatOptions holds flags for the cat command.
type CatOptions struct {
	*RootOptions
}

// NewCatCommand creates the cat command.
func NewCatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cat [topic]",
		Short: "Print a topic log, or list topics",
		Long: `Print the canonical NDJSON log of one topic to stdout.

With no topic argument, list the topics present on the store instead.

Example:
  marketloom cat --store ./bus
  marketloom cat --store ./bus ohlcv.bar.v1`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(opts, args, cmd)
		},
	}

	return cmd
}

func runCat(opts *CatOptions, args []string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	w := cmd.OutOrStdout()

	if len(args) == 0 {
		topics, err := st.Topics()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list topics", err)
		}
		for _, topic := range topics {
			fmt.Fprintln(w, topic)
		}
		return nil
	}

	dump, err := st.Dump(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to dump %s", args[0]), err)
	}
	_, err = w.Write(dump)
	return err
}
