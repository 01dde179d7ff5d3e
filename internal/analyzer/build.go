package analyzer

import (
	"fmt"

	"github.com/lehigh-university-libraries/pdcheck/internal/config"
	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
)

// Build creates an analyzer backed by the HTTP sources enabled in cfg.
// store may be nil, in which case results are not resolved or persisted.
func Build(cfg config.Config, store identity.Store) (*Analyzer, error) {
	registry := copyright.DefaultRegistry(cfg.CurrentYear)
	if err := cfg.Validate(registry); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scorer := relevance.New(cfg.Relevance)
	c := Config{
		Scorer:           scorer,
		Reconciler:       reconcile.New(scorer, cfg.Precedence),
		Registry:         registry,
		Resolver:         identity.NewResolver(cfg.Identity),
		Store:            store,
		DefaultCountry:   cfg.Country,
		SourceTimeout:    cfg.SourceTimeout,
		BatchConcurrency: cfg.BatchConcurrency,
	}

	if cfg.SourceEnabled(sources.LOCName) {
		c.Sources = append(c.Sources, sources.NewLOC(cfg.SourceOptions(sources.LOCName), scorer))
	}
	if cfg.SourceEnabled(sources.MusicBrainzName) {
		mb := sources.NewMusicBrainz(cfg.SourceOptions(sources.MusicBrainzName))
		c.Sources = append(c.Sources, mb)
		c.AuthorLookup = mb
	}
	if cfg.SourceEnabled(sources.HathiTrustName) {
		c.IdentifierSources = append(c.IdentifierSources, sources.NewHathiTrust(cfg.SourceOptions(sources.HathiTrustName)))
	}

	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("no search sources enabled")
	}
	return New(c), nil
}
