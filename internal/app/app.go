package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huepreset/internal/config"
	"github.com/dokzlo13/huepreset/internal/hue"
	"github.com/dokzlo13/huepreset/internal/ledger"
)

// App is the application container behind every CLI command.
type App struct {
	cfg      *config.Config
	services *Services
}

// New creates a new App instance with all services initialized.
func New(cfg *config.Config) (*App, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
	}, nil
}

// Close releases the database and other resources.
func (a *App) Close() error {
	if a.services != nil {
		a.services.Close()
	}
	return nil
}

// Ping returns the bridge identity, failing when the token is rejected.
func (a *App) Ping(ctx context.Context) (*BridgeInfo, error) {
	return a.services.Hue.Info(ctx)
}

// Lights returns a snapshot of every light on the bridge.
func (a *App) Lights(ctx context.Context) (*hue.Preset, error) {
	return a.services.Hue.Client.Lights(ctx)
}

// Light returns a snapshot of a single light.
func (a *App) Light(ctx context.Context, id string) (*hue.Light, error) {
	return a.services.Hue.Client.Light(ctx, id)
}

// Apply pushes p to the bridge and records the outcome under name.
func (a *App) Apply(ctx context.Context, name string, p *hue.Preset) error {
	return a.services.Presets.Apply(ctx, name, p)
}

// RunScript executes a Lua preset script. An empty path runs the configured script.
func (a *App) RunScript(ctx context.Context, path string) error {
	if path == "" {
		path = a.cfg.Script
	}
	return a.services.Lua.RunScript(ctx, path)
}

// History returns the newest apply records.
func (a *App) History(limit int) ([]*ledger.Entry, error) {
	return a.services.Presets.History(limit)
}

// URL formats a bridge API URL.
func (a *App) URL(segments ...string) string {
	return a.services.Hue.Client.URL(segments...)
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
