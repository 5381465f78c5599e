package venue

import (
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// VenueConfig is one venue's section of the scanner's configuration file
// (spec §6: per-venue {base_url, api_key, cache_seconds}), plus the
// realtime WebSocket endpoint for venues that have one.
type VenueConfig struct {
	Enabled      bool
	BaseURL      string
	APIKey       string
	CacheSeconds int
	WSURL        string
}

// BuildRegistry constructs one Adapter per enabled venue.
func BuildRegistry(cfgs map[types.Venue]VenueConfig, logger *zap.Logger) map[types.Venue]Adapter {
	registry := make(map[types.Venue]Adapter)

	for v, c := range cfgs {
		if !c.Enabled {
			continue
		}

		adapterCfg := Config{
			BaseURL:      c.BaseURL,
			APIKey:       c.APIKey,
			CacheSeconds: c.CacheSeconds,
			Logger:       logger.With(zap.String("venue", string(v))),
		}

		switch v {
		case types.VenuePoly:
			registry[v] = NewPolyAdapter(adapterCfg, c.WSURL)
		case types.VenueKalshi:
			registry[v] = NewKalshiAdapter(adapterCfg, c.WSURL)
		case types.VenueOpinion:
			registry[v] = NewOpinionAdapter(adapterCfg)
		case types.VenuePredict:
			registry[v] = NewPredictAdapter(adapterCfg)
		}
	}

	return registry
}
