package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// LOCName is the source key for the Library of Congress catalog
const LOCName = "loc"

const (
	locBaseURL     = "http://lx2.loc.gov:210/LCDB"
	locMaxRecords  = 20
	locMinInterval = time.Second
)

var (
	issuedYear = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)
	oclcNumber = regexp.MustCompile(`(?i)\(ocolc\)\s*(?:ocm|ocn|on)?0*(\d+)`)
)

// LOC searches the Library of Congress catalog over SRU and parses MODS
type LOC struct {
	client *client
	scorer *relevance.Scorer
}

// NewLOC creates a Library of Congress adapter. The scorer picks the best
// match that the adapter confidence is computed against.
func NewLOC(opts Options, scorer *relevance.Scorer) *LOC {
	opts = opts.withDefaults(locBaseURL, locMinInterval)
	return &LOC{
		client: newClient(LOCName, opts),
		scorer: scorer,
	}
}

func (l *LOC) Name() string {
	return LOCName
}

func (l *LOC) Close() error {
	l.client.close()
	return nil
}

// CQL builds the SRU query. Generic authors are left out.
func CQL(title, author string) string {
	var parts []string
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, fmt.Sprintf(`dc.title="%s"`, strings.ReplaceAll(t, `"`, `\"`)))
	}
	if a := strings.TrimSpace(author); a != "" && !relevance.IsGenericAuthor(a) {
		parts = append(parts, fmt.Sprintf(`dc.creator="%s"`, strings.ReplaceAll(a, `"`, `\"`)))
	}
	return strings.Join(parts, " AND ")
}

// FetchCandidates runs one searchRetrieve request
func (l *LOC) FetchCandidates(ctx context.Context, q Query) ([]models.CandidateRecord, error) {
	cql := CQL(q.Title, q.Author)
	if cql == "" {
		return nil, fmt.Errorf("no valid search terms provided")
	}

	params := url.Values{}
	params.Set("version", "1.1")
	params.Set("operation", "searchRetrieve")
	params.Set("query", cql)
	params.Set("maximumRecords", fmt.Sprint(locMaxRecords))
	params.Set("recordSchema", "mods")

	body, requestURL, err := l.client.get(ctx, "", params, "application/xml")
	if err != nil {
		return nil, unavailable(LOCName, err)
	}

	records, err := ParseSRU(body)
	if err != nil {
		return nil, unavailable(LOCName, err)
	}

	slog.Debug("LOC search complete", "query", cql, "records", len(records), "url", requestURL)

	confidence := l.confidence(q, records)
	for i := range records {
		records[i].Confidence = confidence
	}
	return records, nil
}

// confidence rates the result set by how well its best match fits the query
func (l *LOC) confidence(q Query, records []models.CandidateRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	best, ok := l.scorer.Best(q.Title, q.Author, records)
	if !ok {
		return 0.1
	}

	confidence := 0.6
	if textnorm.Contains(strings.ToLower(q.Title), strings.ToLower(best.Record.Title)) {
		confidence += 0.2
	}

	if relevance.IsSpecificAuthor(q.Author) {
		target := strings.ToLower(strings.TrimSpace(q.Author))
		matched := false
		for _, a := range best.Record.Authors {
			if textnorm.Contains(target, strings.ToLower(a)) {
				matched = true
				break
			}
		}
		if matched {
			confidence += 0.2
		} else {
			confidence -= 0.3
		}
	}

	return min(max(confidence, 0), 1)
}

type sruResponse struct {
	NumberOfRecords int         `xml:"numberOfRecords"`
	Records         []sruRecord `xml:"records>record"`
}

type sruRecord struct {
	Mods *modsRecord `xml:"recordData>mods"`
}

type modsRecord struct {
	TitleInfo []struct {
		Type     string `xml:"type,attr"`
		NonSort  string `xml:"nonSort"`
		Title    string `xml:"title"`
		SubTitle string `xml:"subTitle"`
	} `xml:"titleInfo"`
	Names []struct {
		Type      string `xml:"type,attr"`
		NameParts []struct {
			Type  string `xml:"type,attr"`
			Value string `xml:",chardata"`
		} `xml:"namePart"`
		RoleTerms []string `xml:"role>roleTerm"`
	} `xml:"name"`
	TypeOfResource []string `xml:"typeOfResource"`
	Genres         []string `xml:"genre"`
	Subjects       []struct {
		Topics []string `xml:"topic"`
	} `xml:"subject"`
	Forms       []string `xml:"physicalDescription>form"`
	DateIssued  []string `xml:"originInfo>dateIssued"`
	Identifiers []struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"identifier"`
	RecordInfo struct {
		Identifier struct {
			Source string `xml:"source,attr"`
			Value  string `xml:",chardata"`
		} `xml:"recordIdentifier"`
	} `xml:"recordInfo"`
}

// ParseSRU decodes an SRU searchRetrieve response carrying MODS records.
// Records without a MODS payload are skipped.
func ParseSRU(data []byte) ([]models.CandidateRecord, error) {
	var resp sruResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse SRU response: %w", err)
	}

	records := make([]models.CandidateRecord, 0, len(resp.Records))
	for _, r := range resp.Records {
		if r.Mods == nil {
			continue
		}
		records = append(records, r.Mods.candidate())
	}
	return records, nil
}

func (m *modsRecord) candidate() models.CandidateRecord {
	rec := models.CandidateRecord{
		Title:       m.title(),
		Authors:     m.authors(),
		SourceName:  LOCName,
		Identifiers: m.identifiers(),
	}

	for _, d := range m.DateIssued {
		if y, err := strconv.Atoi(issuedYear.FindString(d)); err == nil {
			rec.PublicationYear = models.Year(y)
			break
		}
	}

	switch lccn, id := rec.Identifier("lccn"), strings.TrimSpace(m.RecordInfo.Identifier.Value); {
	case lccn != "":
		rec.SourceID = lccn
		rec.SourceURL = "https://lccn.loc.gov/" + lccn
	case id != "":
		rec.SourceID = id
		rec.SourceURL = "https://catalog.loc.gov/vwebv/holdingsInfo?bibId=" + url.QueryEscape(id)
	}

	var ev reconcile.CategoryEvidence
	ev.ResourceTypes = m.TypeOfResource
	ev.Genres = m.Genres
	for _, s := range m.Subjects {
		ev.Subjects = append(ev.Subjects, s.Topics...)
	}
	ev.Forms = m.Forms
	rec.CategoryHint, rec.CategoryConfidence, rec.CategoryBasis = reconcile.ClassifyCategory(ev, reconcile.CatalogDefaultConfidence)

	return rec
}

// title prefers the untyped titleInfo over uniform or alternative titles
func (m *modsRecord) title() string {
	for pass := 0; pass < 2; pass++ {
		for _, ti := range m.TitleInfo {
			if pass == 0 && ti.Type != "" {
				continue
			}
			t := strings.TrimSpace(strings.TrimSpace(ti.NonSort) + " " + strings.TrimSpace(ti.Title))
			if t != "" {
				return strings.Join(strings.Fields(t), " ")
			}
		}
	}
	return ""
}

// authors returns personal names whose role is author or creator, or that
// carry no role at all
func (m *modsRecord) authors() []string {
	var authors []string
	for _, n := range m.Names {
		if n.Type != "personal" {
			continue
		}
		if len(n.RoleTerms) > 0 && !isAuthorRole(n.RoleTerms[0]) {
			continue
		}

		var name, dates []string
		for _, p := range n.NameParts {
			v := strings.TrimSpace(p.Value)
			if v == "" {
				continue
			}
			if p.Type == "date" {
				dates = append(dates, v)
				continue
			}
			name = append(name, v)
		}
		if len(name) == 0 {
			continue
		}
		full := strings.Join(name, " ")
		if len(dates) > 0 {
			full += ", " + strings.Join(dates, " ")
		}
		authors = append(authors, full)
	}
	return authors
}

func isAuthorRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "author", "creator", "aut", "cre", "composer", "cmp":
		return true
	}
	return false
}

func (m *modsRecord) identifiers() map[string][]string {
	ids := make(map[string][]string)
	for _, id := range m.Identifiers {
		v := strings.TrimSpace(id.Value)
		if v == "" {
			continue
		}
		switch t := strings.ToLower(id.Type); t {
		case "lccn":
			ids["lccn"] = append(ids["lccn"], strings.ReplaceAll(v, " ", ""))
		case "isbn":
			ids["isbn"] = append(ids["isbn"], strings.Fields(v)[0])
		case "oclc":
			if match := oclcNumber.FindStringSubmatch(v); match != nil {
				v = match[1]
			}
			ids["oclc"] = append(ids["oclc"], v)
		default:
			if match := oclcNumber.FindStringSubmatch(v); match != nil {
				ids["oclc"] = append(ids["oclc"], match[1])
			}
		}
	}
	if ri := m.RecordInfo.Identifier; strings.EqualFold(ri.Source, "OCoLC") && strings.TrimSpace(ri.Value) != "" {
		ids["oclc"] = append(ids["oclc"], strings.TrimSpace(ri.Value))
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
