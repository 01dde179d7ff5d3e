package dataset

import (
	"regexp"
	"strconv"
)

// InstitutionalBooksRecord is the subset of an Institutional Books 1.0 row
// the rights evaluation reads. OCR text columns are not loaded.
// Dataset: https://huggingface.co/datasets/instdin/institutional-books-1.0
type InstitutionalBooksRecord struct {
	BarcodeSource string `json:"barcode_src" parquet:"barcode_src"`

	TitleSource     string `json:"title_src" parquet:"title_src"`
	AuthorSource    string `json:"author_src" parquet:"author_src"`
	Date1Source     string `json:"date1_src" parquet:"date1_src"`
	Date2Source     string `json:"date2_src" parquet:"date2_src"`
	DateTypesSource string `json:"date_types_src" parquet:"date_types_src"`

	LanguageSource    string `json:"language_src" parquet:"language_src"`
	GenreOrFormSource string `json:"genre_or_form_src" parquet:"genre_or_form_src"`

	IdentifiersSource Identifiers `json:"identifiers_src" parquet:"identifiers_src"`

	// HathiTrust's rights determination is the reference verdict
	HathitrustDataExt HathitrustData `json:"hathitrust_data_ext" parquet:"hathitrust_data_ext"`
}

// Identifiers contains bibliographic identifiers
type Identifiers struct {
	LCCN []string `json:"lccn" parquet:"lccn,list"`
	ISBN []string `json:"isbn" parquet:"isbn,list"`
	OCLC []string `json:"ocolc" parquet:"ocolc,list"`
}

// HathitrustData contains rights and access information from HathiTrust
type HathitrustData struct {
	URL        string `json:"url" parquet:"url"`
	RightsCode string `json:"rights_code" parquet:"rights_code"`
	ReasonCode string `json:"reason_code" parquet:"reason_code"`
	LastCheck  string `json:"last_check" parquet:"last_check"`
}

// WorkRow is one line of a batch input file
type WorkRow struct {
	Title        string `json:"title" yaml:"title" parquet:"title"`
	Author       string `json:"author,omitempty" yaml:"author,omitempty" parquet:"author,optional"`
	WorkType     string `json:"work_type,omitempty" yaml:"work_type,omitempty" parquet:"work_type,optional"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty" parquet:"country,optional"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty" parquet:"category,optional"`
	WorkCategory string `json:"work_category,omitempty" yaml:"work_category,omitempty" parquet:"work_category,optional"`
}

var (
	yearPattern     = regexp.MustCompile(`(?:^|\D)(1[4-9]\d{2}|20\d{2})(?:\D|$)`)
	lifeDatePattern = regexp.MustCompile(`\b1[4-9]\d{2}\??\s*-\s*(1[4-9]\d{2}|20\d{2})\b`)
)

// GetPrimaryDate returns the primary date for the publication
func (r *InstitutionalBooksRecord) GetPrimaryDate() string {
	if r.Date1Source != "" {
		return r.Date1Source
	}
	return r.Date2Source
}

// PublicationYear parses the first plausible year out of the primary date.
// MARC fixed-field dates such as "18uu" yield nil.
func (r *InstitutionalBooksRecord) PublicationYear() *int {
	return firstYear(r.GetPrimaryDate())
}

// AuthorDeathYear reads the closing year of a life-date range in the author
// heading, e.g. "Austen, Jane, 1775-1817"
func (r *InstitutionalBooksRecord) AuthorDeathYear() *int {
	m := lifeDatePattern.FindStringSubmatch(r.AuthorSource)
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}

// GetISBN returns the first ISBN if available
func (r *InstitutionalBooksRecord) GetISBN() string {
	if len(r.IdentifiersSource.ISBN) > 0 {
		return r.IdentifiersSource.ISBN[0]
	}
	return ""
}

// GetOCLC returns the first OCLC number if available
func (r *InstitutionalBooksRecord) GetOCLC() string {
	if len(r.IdentifiersSource.OCLC) > 0 {
		return r.IdentifiersSource.OCLC[0]
	}
	return ""
}

func firstYear(s string) *int {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}
