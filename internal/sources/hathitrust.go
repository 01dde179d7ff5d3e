package sources

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// HathiTrustName is the source key for the HathiTrust catalog
const HathiTrustName = "hathitrust"

const (
	hathiTrustBaseURL     = "https://catalog.hathitrust.org/api"
	hathiTrustMinInterval = time.Second
	hathiTrustConfidence  = 0.9
)

var rightsMeanings = map[string]string{
	"pd":       "Public Domain - free to use",
	"pdus":     "Public Domain in US - free to use in US",
	"ic":       "In Copyright - restricted access",
	"ic-world": "In Copyright worldwide - restricted access",
	"icus":     "In Copyright in US - restricted access in US",
	"und":      "Undetermined copyright status",
	"cc":       "Creative Commons license",
	"opb":      "Open access book",
}

// RightsMeaning describes a HathiTrust rights code
func RightsMeaning(code string) string {
	code = strings.ToLower(code)
	if m, ok := rightsMeanings[code]; ok {
		return m
	}
	if strings.HasPrefix(code, "cc-") {
		return rightsMeanings["cc"]
	}
	return "Unknown rights code: " + code
}

// RightsStatus maps a HathiTrust rights code onto a copyright status
func RightsStatus(code string) models.Status {
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case code == "pd" || code == "pdus" || code == "cc-zero":
		return models.StatusPublicDomain
	case strings.HasPrefix(code, "ic"), strings.HasPrefix(code, "cc-"), code == "op", code == "orph":
		return models.StatusUnderCopyright
	}
	return models.StatusUnknown
}

// HathiTrust looks up volumes by OCLC number or ISBN through the brief
// volumes API. It cannot search by title.
type HathiTrust struct {
	client *client
}

// NewHathiTrust creates a HathiTrust adapter
func NewHathiTrust(opts Options) *HathiTrust {
	opts = opts.withDefaults(hathiTrustBaseURL, hathiTrustMinInterval)
	return &HathiTrust{client: newClient(HathiTrustName, opts)}
}

func (h *HathiTrust) Name() string {
	return HathiTrustName
}

func (h *HathiTrust) Close() error {
	h.client.close()
	return nil
}

type htBrief struct {
	Records map[string]struct {
		RecordURL    string   `json:"recordURL"`
		Titles       []string `json:"titles"`
		ISBNs        []string `json:"isbns"`
		OCLCs        []string `json:"oclcs"`
		LCCNs        []string `json:"lccns"`
		PublishDates []string `json:"publishDates"`
	} `json:"records"`
	Items []struct {
		FromRecord     string `json:"fromRecord"`
		HTID           string `json:"htid"`
		RightsCode     string `json:"rightsCode"`
		USRightsString string `json:"usRightsString"`
	} `json:"items"`
}

// FetchByIdentifier returns one candidate per catalog record matching the
// identifier. Each carries a note summarising the rights codes of its volumes.
func (h *HathiTrust) FetchByIdentifier(ctx context.Context, scheme, id string) ([]models.CandidateRecord, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	id = strings.TrimSpace(id)
	switch scheme {
	case "oclc":
	case "isbn":
		id = strings.NewReplacer("-", "", " ", "").Replace(id)
	default:
		return nil, fmt.Errorf("unsupported identifier type: %s", scheme)
	}
	if id == "" {
		return nil, fmt.Errorf("empty %s identifier", scheme)
	}

	var resp htBrief
	path := "/volumes/brief/json/" + scheme + ":" + url.PathEscape(id)
	if _, err := h.client.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, unavailable(HathiTrustName, err)
	}

	return resp.candidates(), nil
}

func (b htBrief) candidates() []models.CandidateRecord {
	ids := make([]string, 0, len(b.Records))
	for id := range b.Records {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	records := make([]models.CandidateRecord, 0, len(ids))
	for _, id := range ids {
		r := b.Records[id]
		rec := models.CandidateRecord{
			SourceName: HathiTrustName,
			SourceID:   id,
			SourceURL:  r.RecordURL,
			Confidence: hathiTrustConfidence,
		}
		if rec.SourceURL == "" {
			rec.SourceURL = "https://catalog.hathitrust.org/Record/" + id
		}
		if len(r.Titles) > 0 {
			rec.Title = strings.TrimSpace(r.Titles[0])
		}
		for _, d := range r.PublishDates {
			if y, ok := leadingYear(strings.TrimSpace(d)); ok {
				rec.PublicationYear = models.Year(y)
				break
			}
		}

		identifiers := map[string][]string{}
		if len(r.OCLCs) > 0 {
			identifiers["oclc"] = r.OCLCs
		}
		if len(r.ISBNs) > 0 {
			identifiers["isbn"] = r.ISBNs
		}
		if len(r.LCCNs) > 0 {
			identifiers["lccn"] = r.LCCNs
		}
		if len(identifiers) > 0 {
			rec.Identifiers = identifiers
		}

		rec.Note = b.rightsNote(id)
		records = append(records, rec)
	}
	return records
}

// rightsNote summarises the rights codes of a record's volumes, most
// common first
func (b htBrief) rightsNote(recordID string) string {
	counts := map[string]int{}
	for _, item := range b.Items {
		if item.FromRecord != recordID {
			continue
		}
		code := item.RightsCode
		if code == "" {
			code = "unknown"
		}
		counts[code]++
	}
	if len(counts) == 0 {
		return ""
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s: %s (%d volumes)", code, RightsMeaning(code), counts[code]))
	}
	return "rights " + strings.Join(parts, "; ")
}

// MostCommonRights returns the dominant rights code in a note produced by
// this adapter, or "" if there is none
func MostCommonRights(note string) string {
	rest, ok := strings.CutPrefix(note, "rights ")
	if !ok {
		return ""
	}
	code, _, _ := strings.Cut(rest, ":")
	return strings.TrimSpace(code)
}
