package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"neuralscan/internal/render"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// sections: NEURALSCAN_UPLOAD__UPLOAD_DELAY=1s sets upload.upload_delay.
const EnvPrefix = "NEURALSCAN_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// configNames are looked up in the working directory when no file is given.
var configNames = []string{"neuralscan.yaml", "neuralscan.yml"}

// findConfigFile returns the file to load: the explicit path, else the first
// default name present in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// flagKeys maps flag names to config keys. Flags not listed here are not
// configuration (e.g. --config itself).
var flagKeys = map[string]string{
	"upload-delay":     "upload.upload_delay",
	"processing-delay": "upload.processing_delay",
	"fps":              "render.fps",
	"seed":             "render.seed",
	"segments":         "render.segments",
	"no-rotate":        "render.auto_rotate",
	"no-alt-screen":    "ui.alt_screen",
	"no-mouse":         "ui.mouse",
	"start":            "ui.start_route",
	"catalog":          "catalog.path",
	"watch-catalog":    "catalog.watch",
	"log-file":         "log.file",
	"log-level":        "log.level",
	"otlp-endpoint":    "trace.endpoint",
}

// envKey transforms NEURALSCAN_RENDER__FPS into render.fps.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Only flags the user actually set take part.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			val := posflag.FlagVal(flags, f)
			// --no-* flags set the positive key to the opposite value.
			if strings.HasPrefix(f.Name, "no-") {
				if b, ok := val.(bool); ok {
					return key, !b
				}
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Upload.UploadDelay > 0, "upload.upload_delay must be positive, got %s", c.Upload.UploadDelay)
	check(c.Upload.ProcessingDelay > 0, "upload.processing_delay must be positive, got %s", c.Upload.ProcessingDelay)
	check(len(c.Upload.Extensions) > 0, "upload.extensions must not be empty")
	check(c.Render.FPS > 0 && c.Render.FPS <= 120, "render.fps must be between 1 and 120, got %d", c.Render.FPS)
	check(c.Render.Segments >= 3, "render.segments must be at least 3, got %d", c.Render.Segments)
	check(c.Render.Opacity > 0 && c.Render.Opacity <= 1, "render.opacity must be in (0, 1], got %g", c.Render.Opacity)
	for key, v := range map[string]string{
		"render.mesh_color": c.Render.MeshColor,
		"render.wire_color": c.Render.WireColor,
		"render.background": c.Render.Background,
	} {
		_, err := render.ParseColor(v)
		check(err == nil, "%s: %v", key, err)
	}
	_, err := ParseLevel(c.Log.Level)
	check(err == nil, "log.level: %v", err)
	_, err = ParseRoute(c.UI.StartRoute)
	check(err == nil, "ui.start_route: %v", err)
	check(c.Trace.MaxRuns > 0, "trace.max_runs must be positive, got %d", c.Trace.MaxRuns)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

// ParseRoute normalises a start route name: "upload" or "/" for the upload
// screen, "render" or "/render" for the viewer.
func ParseRoute(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upload", "/":
		return "upload", nil
	case "render", "/render":
		return "render", nil
	default:
		return "", fmt.Errorf("unknown route %q", s)
	}
}
