package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
	"golang.org/x/sync/errgroup"
)

// gathered collects what the sources returned for one query
type gathered struct {
	mu         sync.Mutex
	candidates map[string][]models.CandidateRecord
	errors     map[string]error
	facts      []models.AuthorFacts
}

func (g *gathered) add(source string, records []models.CandidateRecord, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.errors[source] = err
		return
	}
	g.candidates[source] = append(g.candidates[source], records...)
}

// gather queries every source, and the author lookup, concurrently. Each
// call gets its own timeout; one failing source never cancels the others.
func (a *Analyzer) gather(ctx context.Context, q sources.Query) *gathered {
	g := &gathered{
		candidates: make(map[string][]models.CandidateRecord),
		errors:     make(map[string]error),
	}

	var eg errgroup.Group
	for _, src := range a.cfg.Sources {
		eg.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
			defer cancel()

			records, err := src.FetchCandidates(sctx, q)
			if err != nil {
				slog.Warn("Source failed", "source", src.Name(), "error", err)
			} else {
				slog.Debug("Source answered", "source", src.Name(), "candidates", len(records))
			}
			g.add(src.Name(), records, err)
			return nil
		})
	}

	if a.cfg.AuthorLookup != nil && relevance.IsSpecificAuthor(q.Author) {
		eg.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
			defer cancel()

			facts, err := a.cfg.AuthorLookup.LookupAuthor(sctx, q.Author)
			if err != nil {
				slog.Warn("Author lookup failed", "author", q.Author, "error", err)
				return nil
			}
			if facts != nil {
				g.mu.Lock()
				g.facts = append(g.facts, *facts)
				g.mu.Unlock()
			}
			return nil
		})
	}

	// every goroutine returns nil
	_ = eg.Wait()
	return g
}

// followIdentifiers asks the identifier sources about the best catalog
// match, using the first scheme the catalog record carries
func (a *Analyzer) followIdentifiers(ctx context.Context, q sources.Query, g *gathered) {
	if len(a.cfg.IdentifierSources) == 0 {
		return
	}

	scheme, id := a.bestIdentifier(q, g.candidates)
	if id == "" {
		return
	}

	for _, src := range a.cfg.IdentifierSources {
		sctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
		records, err := src.FetchByIdentifier(sctx, scheme, id)
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			slog.Warn("Identifier lookup failed", "source", src.Name(), "scheme", scheme, "id", id, "error", err)
		}
		g.add(src.Name(), records, err)
	}
}

// identifierSchemes lists lookup keys in order of preference
var identifierSchemes = []string{"oclc", "isbn"}

func (a *Analyzer) bestIdentifier(q sources.Query, candidates map[string][]models.CandidateRecord) (string, string) {
	for _, scored := range a.cfg.Scorer.Rank(q.Title, q.Author, candidates[sources.LOCName], 0) {
		for _, scheme := range identifierSchemes {
			if id := scored.Record.Identifier(scheme); id != "" {
				return scheme, id
			}
		}
	}
	return "", ""
}
