package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neuralscan/internal/catalog"
	"neuralscan/internal/config"
	"neuralscan/internal/logging"
	"neuralscan/internal/progress"
	"neuralscan/internal/trace"
	"neuralscan/internal/ui"
)

// shutdownTimeout bounds the final trace flush.
const shutdownTimeout = 5 * time.Second

// openLogger builds the logger cfg asks for.
func openLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(cfg.Log.File, level)
}

// buildApp wires the root model to its collaborators. The returned cleanup
// stops the catalog watcher and flushes pending trace exports.
func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ui.AppModel, func(), error) {
	route, err := ui.ParseRoute(cfg.UI.StartRoute)
	if err != nil {
		return nil, nil, fmt.Errorf("ui.start_route: %w", err)
	}
	scene, err := cfg.Scene(log)
	if err != nil {
		return nil, nil, err
	}

	var provider catalog.Provider = catalog.Static{}
	var watcher *catalog.Watcher
	if cfg.Catalog.Path != "" {
		provider = catalog.NewFileProvider(cfg.Catalog.Path)
		if cfg.Catalog.Watch {
			watcher, err = catalog.NewWatcher(cfg.Catalog.Path, catalog.DefaultDebounce, log)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	// The exporter starts SDK goroutines, so it is built after everything
	// that can still fail.
	var exporter trace.Exporter
	otlp, err := trace.NewOTLPExporter(ctx, cfg.Exporter())
	if err != nil {
		if watcher != nil {
			_ = watcher.Close()
		}
		return nil, nil, err
	}
	if otlp != nil {
		exporter = otlp
		log.Info("trace export enabled", "endpoint", otlp.Endpoint())
	}
	traces := trace.NewManager(cfg.Trace.MaxRuns, exporter)

	app := ui.NewAppModel(ui.Options{
		StartRoute:    route,
		Upload:        cfg.UploadMachine(),
		Extensions:    cfg.Upload.Extensions,
		Scene:         scene,
		FrameInterval: cfg.FrameInterval(),
		Profile:       lipgloss.ColorProfile(),
		Catalog:       provider,
		Watcher:       watcher,
		Recorder:      trace.NewPipelineRecorder(traces, cfg.UploadMachine()),
		Logger:        log,
	})

	// Export runs on the SDK's goroutines; failures surface in the pipeline log.
	traces.SetOnError(func(err error) {
		log.Warn("trace export failed", "err", err)
		app.Emitter().Emit(progress.Failed(err))
	})

	cleanup := func() {
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				log.Warn("close catalog watcher", "err", err)
			}
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := traces.Shutdown(sctx); err != nil {
			log.Warn("flush traces", "err", err)
		}
	}
	return app, cleanup, nil
}

// programOptions maps the ui settings onto Bubble Tea options.
func programOptions(ctx context.Context, cfg *config.Config) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

// runTUI runs the interactive program until the user quits.
func runTUI(ctx context.Context, cfg *config.Config) error {
	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.File != "" {
		log.Info("config loaded", "file", cfg.File)
	}
	app, cleanup, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(app.AsTeaModel(), programOptions(ctx, cfg)...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info("exited")
	return nil
}
