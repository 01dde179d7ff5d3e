// Package copyright derives legal status and public-domain year from
// publication and authorship facts, one calculator per jurisdiction.
package copyright

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

const (
	// MinYear is the earliest publication or death year accepted
	MinYear = 1400
	// futureSlack is how far past the current year a year may be
	futureSlack = 5
	// maxDeathBeforePublication bounds posthumous publication
	maxDeathBeforePublication = 100
)

// Facts are the inputs a calculator needs
type Facts struct {
	PublicationYear *int
	AuthorDeathYear *int
	Category        models.WorkCategory
	Country         string
}

// Info summarises a jurisdiction's rules
type Info struct {
	Country string   `json:"country" yaml:"country"`
	Name    string   `json:"name" yaml:"name"`
	Statute string   `json:"statute" yaml:"statute"`
	Rules   []string `json:"rules" yaml:"rules"`
}

// Calculator applies one country's copyright term rules
type Calculator interface {
	Country() string
	Calculate(f Facts) (models.CopyrightVerdict, error)
	IsLikelyPublicDomain(publicationYear, deathYear *int) bool
	TermExplanation(category models.WorkCategory, publicationYear *int) string
	Info() Info
}

// clock resolves the current year. A zero fixed year means "now".
type clock struct {
	fixed int
}

func (c clock) year() int {
	if c.fixed > 0 {
		return c.fixed
	}
	return time.Now().Year()
}

// validate checks year ranges and the category, and returns the category
// to use (individual when none is given)
func validate(f Facts, currentYear int) (models.WorkCategory, error) {
	maxYear := currentYear + futureSlack

	if f.PublicationYear != nil {
		y := *f.PublicationYear
		if y < MinYear || y > maxYear {
			return "", &InvalidInputError{
				Field:  "publication_year",
				Value:  strconv.Itoa(y),
				Reason: fmt.Sprintf("must be between %d and %d", MinYear, maxYear),
			}
		}
	}

	if f.AuthorDeathYear != nil {
		y := *f.AuthorDeathYear
		if y < MinYear || y > maxYear {
			return "", &InvalidInputError{
				Field:  "author_death_year",
				Value:  strconv.Itoa(y),
				Reason: fmt.Sprintf("must be between %d and %d", MinYear, maxYear),
			}
		}
		if f.PublicationYear != nil && y < *f.PublicationYear-maxDeathBeforePublication {
			return "", &InvalidInputError{
				Field:  "author_death_year",
				Value:  strconv.Itoa(y),
				Reason: fmt.Sprintf("more than %d years before publication in %d", maxDeathBeforePublication, *f.PublicationYear),
			}
		}
	}

	switch f.Category {
	case "":
		return models.WorkIndividual, nil
	case models.WorkIndividual, models.WorkForHire, models.WorkAnonymous, models.WorkPseudonymous:
		return f.Category, nil
	default:
		return "", &InvalidInputError{
			Field:  "work_category",
			Value:  string(f.Category),
			Reason: "must be individual, work_for_hire, anonymous or pseudonymous",
		}
	}
}

func unknownVerdict() models.CopyrightVerdict {
	return models.CopyrightVerdict{
		Status:      models.StatusUnknown,
		Explanation: "Publication year unknown; status cannot be determined without it.",
	}
}

// verdict settles status from the public-domain year
func verdict(pdYear, currentYear int, explanation string) models.CopyrightVerdict {
	status := models.StatusUnderCopyright
	if currentYear >= pdYear {
		status = models.StatusPublicDomain
	}
	return models.CopyrightVerdict{
		Status:           status,
		PublicDomainYear: models.Year(pdYear),
		Explanation:      explanation,
	}
}
