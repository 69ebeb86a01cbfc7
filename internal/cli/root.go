// Package cli provides the neuralscan command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"neuralscan/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates the root command. Without a subcommand it runs the TUI.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "neuralscan",
		Short: "NeuralScan - CT scan upload and 3D render demo",
		Long: `NeuralScan walks a set of DICOM files through a simulated upload and
processing pipeline and shows an enhanced 3D model of the scan, rendered
in the terminal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), GetConfig(cmd.Context()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./neuralscan.yaml)")
	registerConfigFlags(rootCmd.PersistentFlags())

	_ = rootCmd.RegisterFlagCompletionFunc("start", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"upload", "render"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewSnapshotCommand())

	return rootCmd
}

// registerConfigFlags declares the flags config.Load maps onto settings.
// Defaults shown here are informational; only flags that were set override
// the file and environment.
func registerConfigFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.Duration("upload-delay", d.Upload.UploadDelay, "simulated upload duration")
	fs.Duration("processing-delay", d.Upload.ProcessingDelay, "simulated processing duration")
	fs.Int("fps", d.Render.FPS, "viewer frame rate")
	fs.Uint64("seed", d.Render.Seed, "mesh deformation seed (0 = random)")
	fs.Int("segments", d.Render.Segments, "sphere segments of the placeholder model")
	fs.Bool("no-rotate", false, "disable the model's auto-rotation")
	fs.Bool("no-alt-screen", false, "draw inline instead of on the alternate screen")
	fs.Bool("no-mouse", false, "disable mouse input")
	fs.String("start", d.UI.StartRoute, "start route (upload|render)")
	fs.String("catalog", "", "YAML catalog of slices and figures")
	fs.Bool("watch-catalog", false, "reload the catalog when the file changes")
	fs.String("log-file", "", "write logs to this file")
	fs.String("log-level", d.Log.Level, "log level (debug|info|warn|error)")
	fs.String("otlp-endpoint", "", "export pipeline runs to this OTLP/HTTP endpoint (host:port)")
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ExitCode maps an error from Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrInvalidConfig):
		return 2
	default:
		return 1
	}
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}
