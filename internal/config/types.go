// Package config loads neuralscan settings from defaults, a YAML file, the
// environment and command-line flags.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"neuralscan/internal/render"
	"neuralscan/internal/trace"
	"neuralscan/internal/upload"
)

// Defaults
const (
	DefaultFPS         = 30
	DefaultLogLevel    = "info"
	DefaultMaxRuns     = 10
	DefaultStartRoute  = "upload"
	DefaultMeshColor   = "#A456F0"
	DefaultWireColor   = "#E5E5E7"
	DefaultBackground  = "#1A1F2C"
	DefaultOpacity     = 0.7
	DefaultSegments    = 32
	DefaultRotateSpeed = 0.001
)

// Config holds all settings.
type Config struct {
	Upload  UploadConfig  `koanf:"upload" yaml:"upload"`
	Render  RenderConfig  `koanf:"render" yaml:"render"`
	UI      UIConfig      `koanf:"ui" yaml:"ui"`
	Catalog CatalogConfig `koanf:"catalog" yaml:"catalog"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Trace   TraceConfig   `koanf:"trace" yaml:"trace"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-" yaml:"-"`
}

// UploadConfig configures the simulated pipeline.
type UploadConfig struct {
	UploadDelay     time.Duration `koanf:"upload_delay" yaml:"upload_delay"`
	ProcessingDelay time.Duration `koanf:"processing_delay" yaml:"processing_delay"`
	Extensions      []string      `koanf:"extensions" yaml:"extensions"`
}

// RenderConfig configures the 3D viewer.
type RenderConfig struct {
	FPS           int     `koanf:"fps" yaml:"fps"`
	AutoRotate    bool    `koanf:"auto_rotate" yaml:"auto_rotate"`
	RotationSpeed float64 `koanf:"rotation_speed" yaml:"rotation_speed"`
	Segments      int     `koanf:"segments" yaml:"segments"`
	Seed          uint64  `koanf:"seed" yaml:"seed"` // 0 picks a time-based seed
	Opacity       float64 `koanf:"opacity" yaml:"opacity"`
	MeshColor     string  `koanf:"mesh_color" yaml:"mesh_color"`
	WireColor     string  `koanf:"wire_color" yaml:"wire_color"`
	Background    string  `koanf:"background" yaml:"background"`
}

// UIConfig configures the terminal program.
type UIConfig struct {
	AltScreen  bool   `koanf:"alt_screen" yaml:"alt_screen"`
	Mouse      bool   `koanf:"mouse" yaml:"mouse"`
	StartRoute string `koanf:"start_route" yaml:"start_route"`
}

// CatalogConfig points at an optional slice/figure catalog file.
type CatalogConfig struct {
	Path  string `koanf:"path" yaml:"path"`
	Watch bool   `koanf:"watch" yaml:"watch"`
}

// LogConfig configures logging. A TUI owns stdout, so logs only go to a file.
type LogConfig struct {
	File  string `koanf:"file" yaml:"file"`
	Level string `koanf:"level" yaml:"level"`
}

// TraceConfig configures pipeline run tracing.
type TraceConfig struct {
	Endpoint    string `koanf:"endpoint" yaml:"endpoint"`
	ServiceName string `koanf:"service_name" yaml:"service_name"`
	Insecure    bool   `koanf:"insecure" yaml:"insecure"`
	MaxRuns     int    `koanf:"max_runs" yaml:"max_runs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Upload: UploadConfig{
			UploadDelay:     upload.DefaultDelay,
			ProcessingDelay: upload.DefaultDelay,
			Extensions:      []string{upload.DICOMExtension},
		},
		Render: RenderConfig{
			FPS:           DefaultFPS,
			AutoRotate:    true,
			RotationSpeed: DefaultRotateSpeed,
			Segments:      DefaultSegments,
			Opacity:       DefaultOpacity,
			MeshColor:     DefaultMeshColor,
			WireColor:     DefaultWireColor,
			Background:    DefaultBackground,
		},
		UI: UIConfig{
			AltScreen:  true,
			Mouse:      true,
			StartRoute: DefaultStartRoute,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Trace: TraceConfig{
			ServiceName: trace.DefaultServiceName,
			Insecure:    true,
			MaxRuns:     DefaultMaxRuns,
		},
	}
}

// defaultsMap is Default flattened for the confmap provider.
func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"upload.upload_delay":     d.Upload.UploadDelay,
		"upload.processing_delay": d.Upload.ProcessingDelay,
		"upload.extensions":       d.Upload.Extensions,
		"render.fps":              d.Render.FPS,
		"render.auto_rotate":      d.Render.AutoRotate,
		"render.rotation_speed":   d.Render.RotationSpeed,
		"render.segments":         d.Render.Segments,
		"render.seed":             d.Render.Seed,
		"render.opacity":          d.Render.Opacity,
		"render.mesh_color":       d.Render.MeshColor,
		"render.wire_color":       d.Render.WireColor,
		"render.background":       d.Render.Background,
		"ui.alt_screen":           d.UI.AltScreen,
		"ui.mouse":                d.UI.Mouse,
		"ui.start_route":          d.UI.StartRoute,
		"catalog.path":            d.Catalog.Path,
		"catalog.watch":           d.Catalog.Watch,
		"log.file":                d.Log.File,
		"log.level":               d.Log.Level,
		"trace.endpoint":          d.Trace.Endpoint,
		"trace.service_name":      d.Trace.ServiceName,
		"trace.insecure":          d.Trace.Insecure,
		"trace.max_runs":          d.Trace.MaxRuns,
	}
}

// UploadMachine returns the state machine settings.
func (c *Config) UploadMachine() upload.Config {
	return upload.Config{
		UploadDelay:     c.Upload.UploadDelay,
		ProcessingDelay: c.Upload.ProcessingDelay,
	}
}

// FrameInterval is the delay between viewer frames.
func (c *Config) FrameInterval() time.Duration {
	fps := c.Render.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Scene builds the render session settings. log may be nil.
func (c *Config) Scene(log *slog.Logger) (render.Config, error) {
	rc := render.DefaultConfig()
	var err error
	if rc.MeshColor, err = render.ParseColor(c.Render.MeshColor); err != nil {
		return rc, fmt.Errorf("render.mesh_color: %w", err)
	}
	if rc.WireColor, err = render.ParseColor(c.Render.WireColor); err != nil {
		return rc, fmt.Errorf("render.wire_color: %w", err)
	}
	if rc.Background, err = render.ParseColor(c.Render.Background); err != nil {
		return rc, fmt.Errorf("render.background: %w", err)
	}
	rc.Opacity = c.Render.Opacity
	rc.Segments = c.Render.Segments
	rc.AutoRotate = c.Render.AutoRotate
	rc.RotationSpeed = c.Render.RotationSpeed
	rc.Rand = render.SeededRand(c.Render.Seed)
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rc.Logger = log
	return rc, nil
}

// Exporter returns the OTLP settings.
func (c *Config) Exporter() trace.ExporterConfig {
	return trace.ExporterConfig{
		Endpoint:    c.Trace.Endpoint,
		ServiceName: c.Trace.ServiceName,
		Insecure:    c.Trace.Insecure,
	}
}
