// Package sources holds the bibliographic source adapters. Each adapter turns
// a title/author query into candidate records; none of them decides which
// candidate is right.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// ErrSourceUnavailable matches any SourceUnavailableError
var ErrSourceUnavailable = errors.New("source unavailable")

// SourceUnavailableError reports a transport or decoding failure in one source
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

func unavailable(source string, err error) error {
	return &SourceUnavailableError{Source: source, Err: err}
}

// Query is what the caller asked for
type Query struct {
	Title  string
	Author string
	// Category narrows which sources are worth asking. Empty means any.
	Category models.Category
}

// Source is a bibliographic search backend
type Source interface {
	// Name is the stable key used for precedence and provenance
	Name() string
	// FetchCandidates returns zero or more candidates. An empty slice with a
	// nil error means the source answered but found nothing.
	FetchCandidates(ctx context.Context, q Query) ([]models.CandidateRecord, error)
	Close() error
}

// AuthorLookup is a name authority that can supply biographical facts
type AuthorLookup interface {
	LookupAuthor(ctx context.Context, name string) (*models.AuthorFacts, error)
}

// IdentifierSource resolves records by a standard identifier such as an
// OCLC number or ISBN
type IdentifierSource interface {
	Name() string
	FetchByIdentifier(ctx context.Context, scheme, id string) ([]models.CandidateRecord, error)
}

// Options configures an HTTP-backed adapter
type Options struct {
	BaseURL string
	Timeout time.Duration
	// MinInterval is the minimum spacing between requests to the service.
	// Zero takes the adapter default, a negative value disables limiting.
	MinInterval time.Duration
	UserAgent   string
	// HTTPClient overrides the default client, mainly for tests
	HTTPClient *http.Client
}

const defaultUserAgent = "pdcheck/0.1 (copyright research tool)"

func (o Options) withDefaults(baseURL string, minInterval time.Duration) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MinInterval < 0 {
		o.MinInterval = 0
	} else if o.MinInterval == 0 {
		o.MinInterval = minInterval
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}
