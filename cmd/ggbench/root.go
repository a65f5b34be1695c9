package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggbench"
	"github.com/gogpu/ggbench/internal/config"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "ggbench",
		Short: "Offscreen frame batch renderer for gg",
		Long: `ggbench renders a batch of frames offscreen, on the CPU and on a GPU
device, sequentially or with a bounded number of frames in flight, and
writes the frames to disk in order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setLogger(cmd.ErrOrStderr(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", config.Default().LogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newDevicesCmd(), newVersionCmd())
	return root
}

// setLogger installs a text logger on w at the named level.
func setLogger(w io.Writer, level string) error {
	l, err := config.ParseLevel(level)
	if err != nil {
		return err
	}
	ggbench.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
	return nil
}
