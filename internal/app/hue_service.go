package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/huepreset/internal/config"
	"github.com/dokzlo13/huepreset/internal/hue"
)

// BridgeInfo describes the bridge answering on the configured address.
type BridgeInfo struct {
	Name       string
	BridgeID   string
	ModelID    string
	APIVersion string
	SwVersion  string
}

// HueService wraps the bridge client used for preset reads and applies.
type HueService struct {
	Client  *hue.Client
	bridge  *huego.Bridge
	token   string
	timeout time.Duration
}

// NewHueService creates the bridge client with the configured timeout and,
// when rate_limit_rps is set, a request limiter.
func NewHueService(cfg *config.Config) *HueService {
	httpClient := &http.Client{Timeout: cfg.Hue.Timeout.Duration()}
	client := hue.NewClient(cfg.Hue.Bridge, cfg.Hue.Token, httpClient)

	if rps := cfg.Hue.RateLimitRPS; rps > 0 {
		client = client.WithLimiter(rate.NewLimiter(rate.Limit(rps), 1))
		log.Debug().Float64("rps", rps).Msg("Bridge rate limit enabled")
	}

	return &HueService{
		Client:  client,
		bridge:  huego.New(cfg.Hue.Bridge, cfg.Hue.Token),
		token:   cfg.Hue.Token,
		timeout: cfg.Hue.Timeout.Duration(),
	}
}

// Info fetches the bridge configuration, which also verifies the token.
// huego uses http.DefaultClient, so the configured timeout is applied
// through the context.
func (s *HueService) Info(ctx context.Context) (*BridgeInfo, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c, err := s.bridge.GetConfigContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge config: %w", hue.RedactKey(err, s.token))
	}

	log.Info().
		Str("bridge", s.Client.Domain()).
		Str("name", c.Name).
		Str("api_version", c.APIVersion).
		Msg("Connected to Hue bridge")

	return &BridgeInfo{
		Name:       c.Name,
		BridgeID:   c.BridgeID,
		ModelID:    c.ModelID,
		APIVersion: c.APIVersion,
		SwVersion:  c.SwVersion,
	}, nil
}
