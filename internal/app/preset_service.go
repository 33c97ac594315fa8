package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huepreset/internal/hue"
	"github.com/dokzlo13/huepreset/internal/ledger"
)

// ErrHistoryDisabled is returned by History when ledger.enabled is false.
var ErrHistoryDisabled = errors.New("apply history is disabled")

// PresetApplier is the bridge operation PresetService drives.
type PresetApplier interface {
	Apply(ctx context.Context, p *hue.Preset) error
}

// PresetService applies presets and records each outcome in the ledger.
type PresetService struct {
	client PresetApplier
	ledger *ledger.Ledger // nil when history is disabled
}

// NewPresetService creates a PresetService. A nil ledger disables history.
func NewPresetService(client PresetApplier, l *ledger.Ledger) *PresetService {
	return &PresetService{client: client, ledger: l}
}

// Apply pushes every light of p to the bridge and records the result.
func (s *PresetService) Apply(ctx context.Context, name string, p *hue.Preset) error {
	runID := ledger.NewRunID()
	lights := p.Keys()
	start := time.Now()

	err := s.client.Apply(ctx, p)

	logger := log.With().
		Str("run_id", runID).
		Str("preset", name).
		Strs("lights", lights).
		Dur("took", time.Since(start)).
		Logger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to apply preset")
	} else {
		logger.Info().Msg("Preset applied")
	}

	if s.ledger != nil {
		if recErr := s.ledger.Record(runID, name, lights, err); recErr != nil {
			logger.Warn().Err(recErr).Msg("Failed to record apply")
		}
	}

	return err
}

// History returns the newest ledger entries. It returns ErrHistoryDisabled
// when the ledger is turned off.
func (s *PresetService) History(limit int) ([]*ledger.Entry, error) {
	if s.ledger == nil {
		return nil, ErrHistoryDisabled
	}
	return s.ledger.Recent(limit)
}
