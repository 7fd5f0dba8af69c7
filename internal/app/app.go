// Package app wires the upstream client, resolver and composer from config.
package app

import (
	"log/slog"

	"github.com/ericksa/reclaimdigest/internal/config"
	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/ericksa/reclaimdigest/internal/reclaim"
)

// NewClient builds the Reclaim client described by cfg.
func NewClient(cfg *config.Config, logger *slog.Logger) *reclaim.Client {
	return reclaim.NewClient(reclaim.ClientConfig{
		Token:                   cfg.Reclaim.Token,
		BaseURL:                 cfg.Reclaim.BaseURL,
		Timeout:                 cfg.ReclaimTimeout(),
		BreakerEnabled:          cfg.Reclaim.Breaker.Enabled,
		BreakerFailureThreshold: cfg.Reclaim.Breaker.FailureThreshold,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout(),
	}, logger)
}

// NewComposer builds a composer over provider using the digest settings of cfg.
func NewComposer(cfg *config.Config, provider digest.Provider, logger *slog.Logger) (*digest.Composer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	resolver := digest.NewResolver(provider, cfg.EventHorizon(), cfg.Digest.MaxParallel, logger)
	return digest.NewComposer(provider, resolver, digest.Options{
		Location:          loc,
		AppURL:            cfg.Reclaim.AppURL,
		SectionLimit:      cfg.Digest.SectionLimit,
		UpcomingLimit:     cfg.Digest.UpcomingLimit,
		ResolveNextEvents: cfg.Digest.ResolveNextEvents,
	}, logger), nil
}
