package cmd

import (
	"fmt"

	"github.com/mselser95/arb-scanner/internal/venue"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// venueNameToType maps a configuration file's lowercase venue key (spec
// §6: venues.poly, venues.kalshi, ...) to its wire-level identifier.
// Mirrors internal/app's mapping of the same configuration shape.
var venueNameToType = map[string]types.Venue{
	"poly":    types.VenuePoly,
	"kalshi":  types.VenueKalshi,
	"opinion": types.VenueOpinion,
	"predict": types.VenuePredict,
}

func buildVenueRegistry(cfg *config.Config, logger *zap.Logger) (map[types.Venue]venue.Adapter, error) {
	vcfgs := make(map[types.Venue]venue.VenueConfig, len(cfg.Venues))
	for name, v := range cfg.Venues {
		vt, ok := venueNameToType[name]
		if !ok {
			return nil, fmt.Errorf("unknown venue %q in configuration", name)
		}
		vcfgs[vt] = venue.VenueConfig{
			Enabled:      v.Enabled,
			BaseURL:      v.BaseURL,
			APIKey:       v.APIKey,
			CacheSeconds: v.CacheSeconds,
			WSURL:        v.WSURL,
		}
	}
	return venue.BuildRegistry(vcfgs, logger), nil
}
