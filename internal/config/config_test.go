package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFlags mirrors the flags the root command registers.
func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.Duration("upload-delay", 0, "")
	fs.Duration("processing-delay", 0, "")
	fs.Int("fps", 0, "")
	fs.Uint64("seed", 0, "")
	fs.Int("segments", 0, "")
	fs.Bool("no-rotate", false, "")
	fs.Bool("no-alt-screen", false, "")
	fs.Bool("no-mouse", false, "")
	fs.String("start", "", "")
	fs.String("catalog", "", "")
	fs.Bool("watch-catalog", false, "")
	fs.String("log-file", "", "")
	fs.String("log-level", "", "")
	fs.String("otlp-endpoint", "", "")
	return fs
}

// inTempDir runs the test from an empty directory so no stray
// neuralscan.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Upload.UploadDelay)
	assert.Equal(t, 2*time.Second, cfg.Upload.ProcessingDelay)
	assert.Equal(t, []string{".dcm"}, cfg.Upload.Extensions)
	assert.Equal(t, 30, cfg.Render.FPS)
	assert.True(t, cfg.Render.AutoRotate)
	assert.Equal(t, "#A456F0", cfg.Render.MeshColor)
	assert.True(t, cfg.UI.AltScreen)
	assert.True(t, cfg.UI.Mouse)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Trace.MaxRuns)
	assert.Empty(t, cfg.File)
	assert.Equal(t, time.Second/30, cfg.FrameInterval())
}

func TestLoad_FileEnvFlagPrecedence(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
upload:
  upload_delay: 500ms
  processing_delay: 750ms
render:
  fps: 20
  seed: 7
log:
  level: debug
`), 0o644))

	t.Setenv("NEURALSCAN_RENDER__FPS", "25")
	t.Setenv("NEURALSCAN_UPLOAD__PROCESSING_DELAY", "1s")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--fps=10", "--no-rotate", "--start=render"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.UploadDelay, "from file")
	assert.Equal(t, time.Second, cfg.Upload.ProcessingDelay, "env beats file")
	assert.Equal(t, 10, cfg.Render.FPS, "flag beats env")
	assert.Equal(t, uint64(7), cfg.Render.Seed)
	assert.False(t, cfg.Render.AutoRotate, "--no-rotate inverts")
	assert.Equal(t, "render", cfg.UI.StartRoute)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.UI.AltScreen, "unset flags keep their layer's value")
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "neuralscan.yaml"), []byte("render:\n  fps: 12\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "neuralscan.yaml", cfg.File)
	assert.Equal(t, 12, cfg.Render.FPS)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	inTempDir(t)
	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_Invalid(t *testing.T) {
	inTempDir(t)
	t.Setenv("NEURALSCAN_UPLOAD__UPLOAD_DELAY", "0s")
	t.Setenv("NEURALSCAN_RENDER__MESH_COLOR", "purple")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "upload.upload_delay")
	assert.Contains(t, err.Error(), "render.mesh_color")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero processing delay", func(c *Config) { c.Upload.ProcessingDelay = 0 }, "upload.processing_delay"},
		{"no extensions", func(c *Config) { c.Upload.Extensions = nil }, "upload.extensions"},
		{"fps too high", func(c *Config) { c.Render.FPS = 500 }, "render.fps"},
		{"few segments", func(c *Config) { c.Render.Segments = 2 }, "render.segments"},
		{"opacity", func(c *Config) { c.Render.Opacity = 1.5 }, "render.opacity"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"route", func(c *Config) { c.UI.StartRoute = "/settings" }, "ui.start_route"},
		{"max runs", func(c *Config) { c.Trace.MaxRuns = 0 }, "trace.max_runs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseRoute(t *testing.T) {
	for in, want := range map[string]string{"": "upload", "/": "upload", "Upload": "upload", "render": "render", "/render": "render"} {
		got, err := ParseRoute(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestScene(t *testing.T) {
	cfg := Default()
	cfg.Render.Seed = 3
	cfg.Render.Segments = 16
	sc, err := cfg.Scene(nil)
	require.NoError(t, err)
	assert.Equal(t, 16, sc.Segments)
	assert.Equal(t, 0.7, sc.Opacity)
	assert.NotNil(t, sc.Rand)
	assert.NotNil(t, sc.Logger)

	cfg.Render.WireColor = "nope"
	_, err = cfg.Scene(nil)
	assert.Error(t, err)
}

func TestUploadMachineAndExporter(t *testing.T) {
	cfg := Default()
	cfg.Upload.UploadDelay = time.Second
	cfg.Trace.Endpoint = "collector:4318"
	assert.Equal(t, time.Second, cfg.UploadMachine().UploadDelay)
	assert.Equal(t, "collector:4318", cfg.Exporter().Endpoint)
	assert.Equal(t, "neuralscan", cfg.Exporter().ServiceName)
}
