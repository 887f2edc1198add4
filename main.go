package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// genericFailure is printed for every error that is not a usage error.
const genericFailure = "An Error Has Occurred"

// usageError carries a message shown to the user verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

// newLogger returns a text logger at the named level, info when unrecognized.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func main() {
	// Results go to stdout, so command logs go to stderr. serve replaces this
	// logger once its config is loaded.
	slog.SetDefault(newLogger(os.Stderr, os.Getenv("KM_LOG_LEVEL")))

	rootCmd := &cobra.Command{
		Use:           "kmeansd",
		Short:         "K-means clustering CLI and daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kmeansd v%s\n", version)
		},
	})
	rootCmd.AddCommand(newServeCmd(), newFitCmd(), newLegacyCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stdout, errorMessage(err))
		os.Exit(1)
	}
}

func errorMessage(err error) string {
	var ue usageError
	if errors.As(err, &ue) {
		return ue.Error()
	}
	return genericFailure
}
