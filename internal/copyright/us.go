package copyright

import (
	"fmt"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

const (
	usPublicDomainCutoff = 1923
	usModernActYear      = 1978
	usPublicationTerm    = 95
	usLifeTerm           = 70
)

// US applies Title 17 of the United States Code
type US struct {
	clock clock
}

// NewUS creates a US calculator. currentYear pins the year used for status
// decisions; zero means the wall-clock year.
func NewUS(currentYear int) *US {
	return &US{clock: clock{fixed: currentYear}}
}

func (c *US) Country() string { return "US" }

func (c *US) Calculate(f Facts) (models.CopyrightVerdict, error) {
	current := c.clock.year()
	category, err := validate(f, current)
	if err != nil {
		return models.CopyrightVerdict{}, err
	}

	if f.PublicationYear == nil {
		return unknownVerdict(), nil
	}
	pub := *f.PublicationYear

	if pub < usPublicDomainCutoff {
		return models.CopyrightVerdict{
			Status:           models.StatusPublicDomain,
			PublicDomainYear: models.Year(usPublicDomainCutoff),
			Explanation: fmt.Sprintf("Published %d, before %d. All terms for works published before %d have expired; public domain since January 1, %d.",
				pub, usPublicDomainCutoff, usPublicDomainCutoff, usPublicDomainCutoff),
		}, nil
	}

	if pub < usModernActYear {
		pd := pub + usPublicationTerm
		return verdict(pd, current, fmt.Sprintf(
			"Published %d (1923-1977 era). Term is %d years from publication under 17 U.S.C. §304; public domain January 1, %d per §305.",
			pub, usPublicationTerm, pd)), nil
	}

	switch category {
	case models.WorkIndividual:
		if f.AuthorDeathYear != nil {
			death := *f.AuthorDeathYear
			pd := death + usLifeTerm
			return verdict(pd, current, fmt.Sprintf(
				"Published %d by an individual author who died in %d. Term is life + %d years under 17 U.S.C. §302(a); public domain January 1, %d.",
				pub, death, usLifeTerm, pd)), nil
		}
		pd := pub + usPublicationTerm
		return models.CopyrightVerdict{
			Status:           models.StatusUnderCopyright,
			PublicDomainYear: models.Year(pd),
			Explanation: fmt.Sprintf(
				"Published %d by an individual author whose death year is unknown. Term is life + %d years under 17 U.S.C. §302(a); %d (publication + %d) is a conservative estimate.",
				pub, usLifeTerm, pd, usPublicationTerm),
		}, nil
	default:
		pd := pub + usPublicationTerm
		return verdict(pd, current, fmt.Sprintf(
			"Published %d as %s. Term is %d years from publication under 17 U.S.C. §302(c); public domain January 1, %d.",
			pub, categoryLabel(category), usPublicationTerm, pd)), nil
	}
}

// IsLikelyPublicDomain is a quick check that needs no work category
func (c *US) IsLikelyPublicDomain(publicationYear, deathYear *int) bool {
	if publicationYear == nil {
		return false
	}
	current := c.clock.year()
	pub := *publicationYear

	if pub < usPublicDomainCutoff {
		return true
	}
	if deathYear != nil && pub >= usModernActYear {
		return current-*deathYear >= usLifeTerm
	}
	return pub+usPublicationTerm <= current
}

func (c *US) TermExplanation(category models.WorkCategory, publicationYear *int) string {
	if publicationYear == nil {
		return "Copyright term cannot be determined without a publication year."
	}
	pub := *publicationYear
	switch {
	case pub < usPublicDomainCutoff:
		return "Works published before 1923 are in the public domain."
	case pub < usModernActYear:
		return "Works published 1923-1977: 95 years from publication."
	case category == models.WorkIndividual || category == "":
		return "Works by individual authors published 1978 or later: life of the author + 70 years."
	default:
		return "Works made for hire, anonymous or pseudonymous works published 1978 or later: 95 years from publication."
	}
}

func (c *US) Info() Info {
	return Info{
		Country: "US",
		Name:    "United States",
		Statute: "17 U.S.C. §§302-305",
		Rules: []string{
			"published before 1923: public domain since 1923",
			"published 1923-1977: publication + 95 years",
			"published 1978+, individual author: death + 70 years",
			"published 1978+, individual author, death unknown: publication + 95 years (conservative)",
			"published 1978+, work for hire, anonymous or pseudonymous: publication + 95 years",
		},
	}
}

func categoryLabel(c models.WorkCategory) string {
	switch c {
	case models.WorkForHire:
		return "a work made for hire"
	case models.WorkAnonymous:
		return "an anonymous work"
	case models.WorkPseudonymous:
		return "a pseudonymous work"
	}
	return "an individual work"
}
