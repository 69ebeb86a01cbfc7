package cli

import (
	"errors"
	"fmt"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"neuralscan/internal/render"
)

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand() *cobra.Command {
	var (
		width  int
		height int
		frames int
		color  bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the 3D model once and print it",
		Long: `Build a render session without a terminal UI, step it for the given
number of frames and print the surface. Output is ASCII unless --color is set.
Use --seed for a reproducible model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frames < 1 {
				return errors.New("--frames must be at least 1")
			}
			cfg := GetConfig(cmd.Context())
			log, closeLog, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			scene, err := cfg.Scene(log)
			if err != nil {
				return err
			}
			sess, err := render.NewSession(scene, width, height)
			if err != nil {
				return err
			}
			defer sess.Dispose()

			for i := 0; i < frames; i++ {
				if !sess.Step() {
					return fmt.Errorf("frame %d: %w", i+1, render.ErrDisposed)
				}
			}

			profile := termenv.Ascii
			if color {
				profile = termenv.TrueColor
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.NewEncoder(profile).Encode(sess.Surface()))
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 64, "surface width in pixels (one column each)")
	cmd.Flags().IntVar(&height, "height", 48, "surface height in pixels (two per line)")
	cmd.Flags().IntVar(&frames, "frames", 1, "frames to step before printing")
	cmd.Flags().BoolVar(&color, "color", false, "print 24-bit colour half-blocks")
	return cmd
}
