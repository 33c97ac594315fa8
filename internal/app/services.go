package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huepreset/internal/config"
	"github.com/dokzlo13/huepreset/internal/db"
	"github.com/dokzlo13/huepreset/internal/ledger"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure, nil when the ledger is disabled
	DB     *db.DB
	Ledger *ledger.Ledger

	// High-level services
	Hue     *HueService
	Presets *PresetService
	Lua     *LuaService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	if cfg.Ledger.IsEnabled() {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		s.Ledger = ledger.New(database.DB)

		if deleted, err := s.Ledger.DeleteOlderThan(cfg.Ledger.Retention()); err != nil {
			log.Warn().Err(err).Msg("Failed to prune apply history")
		} else if deleted > 0 {
			log.Debug().Int64("deleted", deleted).Msg("Pruned apply history")
		}
	}

	s.Hue = NewHueService(cfg)
	s.Presets = NewPresetService(s.Hue.Client, s.Ledger)
	s.Lua = NewLuaService(s.Hue, s.Presets)

	return s, nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
