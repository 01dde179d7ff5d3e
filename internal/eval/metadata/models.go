package metadata

// WorkComparison is a field-by-field comparison of a reconciled work with
// the dataset's catalog record
type WorkComparison struct {
	Fields           map[string]FieldComparison `yaml:"fields"`
	OverallScore     float64                    `yaml:"overall_score"`
	FieldsMatched    int                        `yaml:"fields_matched"`
	FieldsMissing    int                        `yaml:"fields_missing"`
	FieldsIncorrect  int                        `yaml:"fields_incorrect"`
	LevenshteinTotal int                        `yaml:"levenshtein_total"`
}

// FieldComparison represents comparison for a single metadata field
type FieldComparison struct {
	FieldName string  `yaml:"field"`
	Expected  string  `yaml:"expected"`
	Actual    string  `yaml:"actual"`
	Score     float64 `yaml:"score"` // 0.0 to 1.0
	Distance  int     `yaml:"distance"`
	Match     string  `yaml:"match"` // exact, fuzzy_high, fuzzy_medium, fuzzy_low, no_match, missing
	Notes     string  `yaml:"notes,omitempty"`
}
