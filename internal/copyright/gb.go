package copyright

import (
	"fmt"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

const (
	gbTerm = 70
	// gbAssumedLifespan bounds how long after publication an author of
	// unknown death year is assumed to have lived
	gbAssumedLifespan = 100
)

// GB applies the Copyright, Designs and Patents Act 1988. Terms run to the
// end of the calendar year, so works enter the public domain on January 1
// of the following year.
type GB struct {
	clock clock
}

// NewGB creates a United Kingdom calculator
func NewGB(currentYear int) *GB {
	return &GB{clock: clock{fixed: currentYear}}
}

func (c *GB) Country() string { return "GB" }

func (c *GB) Calculate(f Facts) (models.CopyrightVerdict, error) {
	current := c.clock.year()
	category, err := validate(f, current)
	if err != nil {
		return models.CopyrightVerdict{}, err
	}

	if f.PublicationYear == nil {
		return unknownVerdict(), nil
	}
	pub := *f.PublicationYear

	if category != models.WorkIndividual {
		pd := pub + gbTerm + 1
		return verdict(pd, current, fmt.Sprintf(
			"Published %d as %s. Term ends %d years after the year it was made available under CDPA 1988 s.12(3); public domain January 1, %d.",
			pub, categoryLabel(category), gbTerm, pd)), nil
	}

	if f.AuthorDeathYear != nil {
		death := *f.AuthorDeathYear
		pd := death + gbTerm + 1
		return verdict(pd, current, fmt.Sprintf(
			"Published %d by an individual author who died in %d. Term ends %d years after the author's death under CDPA 1988 s.12(2); public domain January 1, %d.",
			pub, death, gbTerm, pd)), nil
	}

	pd := pub + gbAssumedLifespan + gbTerm + 1
	return verdict(pd, current, fmt.Sprintf(
		"Published %d by an individual author whose death year is unknown. Term is life + %d years under CDPA 1988 s.12(2); %d assumes the author lived no more than %d years after publication and is a conservative estimate.",
		pub, gbTerm, pd, gbAssumedLifespan)), nil
}

func (c *GB) IsLikelyPublicDomain(publicationYear, deathYear *int) bool {
	if publicationYear == nil {
		return false
	}
	current := c.clock.year()
	if deathYear != nil {
		return current > *deathYear+gbTerm
	}
	return current > *publicationYear+gbAssumedLifespan+gbTerm
}

func (c *GB) TermExplanation(category models.WorkCategory, publicationYear *int) string {
	if publicationYear == nil {
		return "Copyright term cannot be determined without a publication year."
	}
	if category == models.WorkIndividual || category == "" {
		return "Works by known individual authors: life of the author + 70 years, to the end of the calendar year."
	}
	return "Works of unknown authorship: 70 years from the end of the year the work was made available."
}

func (c *GB) Info() Info {
	return Info{
		Country: "GB",
		Name:    "United Kingdom",
		Statute: "Copyright, Designs and Patents Act 1988 s.12",
		Rules: []string{
			"individual author: death + 70 years, public domain the following January 1",
			"individual author, death unknown: public domain January 1 of publication + 171 (conservative)",
			"anonymous, pseudonymous or corporate: publication + 70 years, public domain the following January 1",
		},
	}
}
