package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crowpitcher",
		Short: "Surface tracking and spawn placement for the crow and pitcher AR fable",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(journalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simulateCmd() *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "simulate [project-path]",
		Short: "Replay scenario.yaml through a session and print the resulting scene graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), args[0], journalPath)
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal path (overrides server.journal_path)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate crowpitcher.yaml and scenario.yaml without running a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func sampleCmd() *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "sample [project-path]",
		Short: "Exercise the polygon sampler on every scenario surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSample(args[0], samples)
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 1000, "Samples per surface")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Run a live session with the HTTP API and tracker websocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides server.port)")
	return cmd
}

func journalCmd() *cobra.Command {
	var (
		journalPath string
		sessionID   string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "journal [project-path]",
		Short: "Show recorded sessions, unlocks and placements from the SQLite journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(cmd.Context(), args[0], journalPath, sessionID, asJSON)
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal path (overrides server.journal_path)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Only show this session")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
