// Package analyzer sequences a full analysis: fan out to the sources,
// reconcile their candidates, attach a copyright verdict and resolve the
// work's identity against the store.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
	"golang.org/x/sync/errgroup"
)

// Request is one analysis
type Request struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
	// WorkType hints which sources are worth asking: auto, literary or musical
	WorkType string `json:"work_type,omitempty" yaml:"work_type,omitempty"`
	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
	// Category filters results after classification; it never biases it
	Category models.Category `json:"category,omitempty" yaml:"category,omitempty"`
	// WorkCategory overrides the authorship category inferred from the author
	WorkCategory models.WorkCategory `json:"work_category,omitempty" yaml:"work_category,omitempty"`
}

// Result is the outcome of one analysis
type Result struct {
	Request    Request               `json:"request" yaml:"request"`
	Work       models.NormalizedWork `json:"work" yaml:"work"`
	Resolution *identity.Resolution  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	// Excluded is set when the work's category does not match the filter
	Excluded bool `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	// Error carries the reason a batch item fell back to an Unknown verdict
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Config wires the collaborators an Analyzer needs. Sources, lookups and
// the store are optional.
type Config struct {
	Sources           []sources.Source
	IdentifierSources []sources.IdentifierSource
	AuthorLookup      sources.AuthorLookup

	Scorer     *relevance.Scorer
	Reconciler *reconcile.Reconciler
	Registry   *copyright.Registry
	Resolver   *identity.Resolver
	Store      identity.Store

	DefaultCountry   string
	SourceTimeout    time.Duration
	BatchConcurrency int
}

// Analyzer runs analyses. It is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// New creates an analyzer, filling defaults for anything left unset
func New(cfg Config) *Analyzer {
	if cfg.Scorer == nil {
		cfg.Scorer = relevance.New(relevance.DefaultParams())
	}
	if cfg.Reconciler == nil {
		cfg.Reconciler = reconcile.New(cfg.Scorer, reconcile.DefaultPrecedence())
	}
	if cfg.Registry == nil {
		cfg.Registry = copyright.DefaultRegistry(0)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = identity.NewResolver(identity.DefaultParams())
	}
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "US"
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 30 * time.Second
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}
	return &Analyzer{cfg: cfg}
}

// Close releases every source's connections
func (a *Analyzer) Close() error {
	var errs []error
	for _, s := range a.cfg.Sources {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", s.Name(), err))
		}
	}
	for _, s := range a.cfg.IdentifierSources {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Registry returns the calculators the analyzer dispatches to
func (a *Analyzer) Registry() *copyright.Registry {
	return a.cfg.Registry
}

// ParseWorkType accepts auto, literary and musical; empty means auto
func ParseWorkType(s string) (models.Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "literary":
		return models.CategoryLiterary, nil
	case "musical":
		return models.CategoryMusical, nil
	}
	return "", &copyright.InvalidInputError{Field: "work_type", Value: s, Reason: "must be auto, literary or musical"}
}

// prepare validates req before anything touches the network
func (a *Analyzer) prepare(req Request) (Request, models.Category, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" {
		return req, "", &copyright.InvalidInputError{Field: "title", Reason: "must not be empty"}
	}

	if req.Country == "" {
		req.Country = a.cfg.DefaultCountry
	}
	req.Country = copyright.NormalizeCountry(req.Country)
	if _, err := a.cfg.Registry.Lookup(req.Country); err != nil {
		return req, "", err
	}

	hint, err := ParseWorkType(req.WorkType)
	if err != nil {
		return req, "", err
	}

	switch req.Category {
	case "", models.CategoryLiterary, models.CategoryMusical:
	default:
		return req, "", &copyright.InvalidInputError{Field: "category", Value: string(req.Category), Reason: "must be literary or musical"}
	}

	if req.WorkCategory != "" {
		wc, ok := models.ParseWorkCategory(string(req.WorkCategory))
		if !ok {
			return req, "", &copyright.InvalidInputError{Field: "work_category", Value: string(req.WorkCategory), Reason: "must be individual, work_for_hire, anonymous or pseudonymous"}
		}
		req.WorkCategory = wc
	}

	return req, hint, nil
}

// Analyze runs one analysis. It returns a ReconciliationError when no
// source produced a candidate, and ctx.Err() if ctx is cancelled; no
// partial work is returned in either case.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	req, hint, err := a.prepare(req)
	if err != nil {
		return Result{}, err
	}

	q := sources.Query{Title: req.Title, Author: req.Author, Category: hint}
	g := a.gather(ctx, q)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	a.followIdentifiers(ctx, q, g)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	work, err := a.cfg.Reconciler.Reconcile(reconcile.Input{
		Title:        req.Title,
		Author:       req.Author,
		Candidates:   g.candidates,
		Errors:       g.errors,
		AuthorFacts:  g.facts,
		Country:      req.Country,
		WorkCategory: req.WorkCategory,
	})
	if err != nil {
		return Result{}, err
	}

	verdict, err := a.cfg.Registry.Calculate(copyright.Facts{
		PublicationYear: work.PublicationYear,
		AuthorDeathYear: work.AuthorDeathYear,
		Category:        work.WorkCategory,
		Country:         work.Country,
	})
	switch {
	case errors.Is(err, copyright.ErrInvalidInput):
		// the facts came from the sources, not the caller
		slog.Warn("Reconciled facts rejected by calculator", "title", work.Title, "error", err)
		verdict = models.CopyrightVerdict{
			Status:      models.StatusUnknown,
			Explanation: fmt.Sprintf("Source metadata is inconsistent (%v); status cannot be determined.", err),
		}
	case err != nil:
		return Result{}, err
	}
	work.Verdict = &verdict

	result := Result{
		Request:  req,
		Work:     work,
		Excluded: req.Category != "" && work.Category != req.Category,
	}

	if a.cfg.Store != nil {
		res, err := a.cfg.Resolver.Resolve(ctx, a.cfg.Store, work)
		if err != nil {
			return Result{}, fmt.Errorf("failed to resolve work identity: %w", err)
		}
		result.Resolution = &res
	}

	slog.Debug("Analysis complete",
		"title", work.Title,
		"status", verdict.Status,
		"confidence", work.ConfidenceScore,
		"sources", len(work.Sources))

	return result, nil
}

// AnalyzeBatch analyses every request with bounded concurrency and returns
// one result per request in input order. Items that fail reconciliation or
// carry invalid input become Unknown results; an unsupported country fails
// the whole batch before any request is sent.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []Request) ([]Result, error) {
	for _, req := range reqs {
		country := req.Country
		if country == "" {
			country = a.cfg.DefaultCountry
		}
		if _, err := a.cfg.Registry.Lookup(country); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.BatchConcurrency)

	for i, req := range reqs {
		g.Go(func() error {
			slog.Info("Processing item", "title", req.Title, "progress", fmt.Sprintf("%d/%d", i+1, len(reqs)))

			res, err := a.Analyze(gctx, req)
			switch {
			case err == nil:
				results[i] = res
			case gctx.Err() != nil:
				return gctx.Err()
			case errors.Is(err, copyright.ErrConfiguration):
				return err
			default:
				slog.Warn("Batch item failed", "title", req.Title, "error", err)
				results[i] = a.Unknown(req, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Unknown builds the stand-in result for a request that could not be
// analysed, carrying err in the explanation
func (a *Analyzer) Unknown(req Request, err error) Result {
	country := req.Country
	if country == "" {
		country = a.cfg.DefaultCountry
	}
	work := models.NormalizedWork{
		Title:         strings.TrimSpace(req.Title),
		AuthorName:    reconcile.CanonicalAuthor(req.Author),
		Country:       copyright.NormalizeCountry(country),
		WorkCategory:  req.WorkCategory,
		SourceLinks:   map[string]string{},
		Category:      models.CategoryUnknown,
		CategoryBasis: "not classified: analysis failed",
		Verdict: &models.CopyrightVerdict{
			Status:      models.StatusUnknown,
			Explanation: fmt.Sprintf("No determination: %v", err),
		},
	}
	if work.WorkCategory == "" {
		work.WorkCategory = models.WorkIndividual
	}
	return Result{Request: req, Work: work, Error: err.Error()}
}
