package models

import (
	"strings"
	"time"
)

// Category is the kind of creative work a record describes
type Category string

const (
	CategoryLiterary Category = "literary"
	CategoryMusical  Category = "musical"
	CategoryUnknown  Category = "unknown"
)

// WorkCategory is the authorship category that drives copyright term rules
type WorkCategory string

const (
	WorkIndividual   WorkCategory = "individual"
	WorkForHire      WorkCategory = "work_for_hire"
	WorkAnonymous    WorkCategory = "anonymous"
	WorkPseudonymous WorkCategory = "pseudonymous"
)

// ParseWorkCategory accepts the canonical names plus a few common spellings
func ParseWorkCategory(s string) (WorkCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "individual":
		return WorkIndividual, true
	case "work_for_hire", "work-for-hire", "workforhire", "corporate":
		return WorkForHire, true
	case "anonymous", "anon":
		return WorkAnonymous, true
	case "pseudonymous", "pseudonym":
		return WorkPseudonymous, true
	}
	return "", false
}

// Status is the legal status attached to a work
type Status string

const (
	StatusPublicDomain   Status = "Public Domain"
	StatusUnderCopyright Status = "Under Copyright"
	StatusUnknown        Status = "Unknown"
)

// CandidateRecord is one source's view of a possible match
type CandidateRecord struct {
	Title           string   `json:"title" yaml:"title"`
	Authors         []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	PublicationYear *int     `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	SourceURL       string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SourceName      string   `json:"source_name" yaml:"source_name"`
	SourceID        string   `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Confidence is the adapter's confidence in the result set this record came from
	Confidence float64 `json:"confidence" yaml:"confidence"`

	CategoryHint       Category `json:"category_hint,omitempty" yaml:"category_hint,omitempty"`
	CategoryConfidence float64  `json:"category_confidence,omitempty" yaml:"category_confidence,omitempty"`
	CategoryBasis      string   `json:"category_basis,omitempty" yaml:"category_basis,omitempty"`

	// Identifiers keyed by scheme ("oclc", "lccn", "isbn")
	Identifiers map[string][]string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// Note carries advisory text such as a rights determination
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Identifier returns the first identifier of the given scheme
func (c CandidateRecord) Identifier(scheme string) string {
	if ids := c.Identifiers[scheme]; len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// AuthorFacts are biographical facts about an author from a name authority
type AuthorFacts struct {
	Name       string  `json:"name" yaml:"name"`
	DeathYear  *int    `json:"death_year,omitempty" yaml:"death_year,omitempty"`
	Country    string  `json:"country,omitempty" yaml:"country,omitempty"`
	Source     string  `json:"source" yaml:"source"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// CopyrightVerdict is the result of applying a jurisdiction's term rules
type CopyrightVerdict struct {
	Status           Status `json:"status" yaml:"status"`
	PublicDomainYear *int   `json:"public_domain_year,omitempty" yaml:"public_domain_year,omitempty"`
	Explanation      string `json:"explanation" yaml:"explanation"`
}

// NormalizedWork is the reconciled record produced by one analysis
type NormalizedWork struct {
	Title           string            `json:"title" yaml:"title"`
	AuthorName      string            `json:"author_name" yaml:"author_name"`
	PublicationYear *int              `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	AuthorDeathYear *int              `json:"author_death_year,omitempty" yaml:"author_death_year,omitempty"`
	Country         string            `json:"country" yaml:"country"`
	WorkCategory    WorkCategory      `json:"work_category" yaml:"work_category"`
	SourceLinks     map[string]string `json:"source_links" yaml:"source_links"`
	ConfidenceScore float64           `json:"confidence_score" yaml:"confidence_score"`

	Category           Category `json:"category" yaml:"category"`
	CategoryConfidence *float64 `json:"category_confidence,omitempty" yaml:"category_confidence,omitempty"`
	CategoryBasis      string   `json:"category_basis,omitempty" yaml:"category_basis,omitempty"`

	// Provenance maps a field name to the source that supplied it
	Provenance map[string]string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Sources    []SourceRef       `json:"sources,omitempty" yaml:"sources,omitempty"`
	Notes      []string          `json:"notes,omitempty" yaml:"notes,omitempty"`

	Verdict *CopyrightVerdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// SourceRef records one source that contributed to a stored work
type SourceRef struct {
	Source     string    `json:"source" yaml:"source"`
	SourceID   string    `json:"source_id" yaml:"source_id"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	SeenAt     time.Time `json:"seen_at,omitzero" yaml:"seen_at,omitempty"`
}

// StoredWorkRecord is a NormalizedWork plus its content identity
type StoredWorkRecord struct {
	ID               string         `json:"id" yaml:"id"`
	ContentKey       string         `json:"content_key" yaml:"content_key"`
	Work             NormalizedWork `json:"work" yaml:"work"`
	AlternateSources []SourceRef    `json:"alternate_sources,omitempty" yaml:"alternate_sources,omitempty"`
	CreatedAt        time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Year returns a pointer to y
func Year(y int) *int {
	return &y
}

// IntValue dereferences p, returning 0 for nil
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
