package copyright

import (
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

var countryAliases = map[string]string{
	"UK":  "GB",
	"USA": "US",
}

// NormalizeCountry upper-cases a country code and resolves common aliases
func NormalizeCountry(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	if alias, ok := countryAliases[c]; ok {
		return alias
	}
	return c
}

// Registry maps country codes to calculators. It is built once at startup
// and is read-only afterwards.
type Registry struct {
	calculators map[string]Calculator
}

// NewRegistry registers each calculator under its country code
func NewRegistry(calculators ...Calculator) *Registry {
	r := &Registry{calculators: make(map[string]Calculator, len(calculators))}
	for _, c := range calculators {
		r.calculators[NormalizeCountry(c.Country())] = c
	}
	return r
}

// DefaultRegistry holds every jurisdiction this module implements
func DefaultRegistry(currentYear int) *Registry {
	return NewRegistry(NewUS(currentYear), NewGB(currentYear))
}

// Lookup returns the calculator for country or a ConfigurationError
func (r *Registry) Lookup(country string) (Calculator, error) {
	code := NormalizeCountry(country)
	c, ok := r.calculators[code]
	if !ok {
		return nil, &ConfigurationError{Country: country}
	}
	return c, nil
}

// Require fails if any of the countries has no calculator
func (r *Registry) Require(countries ...string) error {
	for _, country := range countries {
		if _, err := r.Lookup(country); err != nil {
			return err
		}
	}
	return nil
}

// Countries lists registered country codes in sorted order
func (r *Registry) Countries() []string {
	codes := make([]string, 0, len(r.calculators))
	for code := range r.calculators {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Calculate dispatches to the calculator for f.Country
func (r *Registry) Calculate(f Facts) (models.CopyrightVerdict, error) {
	c, err := r.Lookup(f.Country)
	if err != nil {
		return models.CopyrightVerdict{}, err
	}
	return c.Calculate(f)
}
