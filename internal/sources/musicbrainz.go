package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// MusicBrainzName is the source key for MusicBrainz
const MusicBrainzName = "musicbrainz"

const (
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	// MusicBrainz asks clients for at most one request per second
	musicBrainzMinInterval = 1100 * time.Millisecond

	musicBrainzWorkLimit   = 25
	musicBrainzArtistLimit = 10
	// earliest release years are looked up for the first few works only;
	// each lookup is one more rate-limited request
	musicBrainzReleaseLookups = 3

	workCategoryConfidence = 0.90
	artistConfidence       = 0.8
)

// MusicBrainz searches musical works and resolves composer life spans
type MusicBrainz struct {
	client *client
}

// NewMusicBrainz creates a MusicBrainz adapter
func NewMusicBrainz(opts Options) *MusicBrainz {
	opts = opts.withDefaults(musicBrainzBaseURL, musicBrainzMinInterval)
	return &MusicBrainz{client: newClient(MusicBrainzName, opts)}
}

func (m *MusicBrainz) Name() string {
	return MusicBrainzName
}

func (m *MusicBrainz) Close() error {
	m.client.close()
	return nil
}

type mbLifeSpan struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Ended bool   `json:"ended"`
}

type mbArtist struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	SortName string     `json:"sort-name"`
	Type     string     `json:"type"`
	Country  string     `json:"country"`
	LifeSpan mbLifeSpan `json:"life-span"`
}

type mbWork struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Relations []struct {
		Type   string    `json:"type"`
		Artist *mbArtist `json:"artist"`
	} `json:"relations"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type mbWorkSearch struct {
	Works []mbWork `json:"works"`
}

type mbRecordingSearch struct {
	Recordings []struct {
		Releases []struct {
			Date string `json:"date"`
		} `json:"releases"`
	} `json:"recordings"`
}

type mbArtistSearch struct {
	Artists []mbArtist `json:"artists"`
}

// FetchCandidates searches works by title and composer. Queries explicitly
// about literary works are not sent.
func (m *MusicBrainz) FetchCandidates(ctx context.Context, q Query) ([]models.CandidateRecord, error) {
	if q.Category == models.CategoryLiterary || strings.TrimSpace(q.Title) == "" {
		return []models.CandidateRecord{}, nil
	}

	query := fmt.Sprintf(`work:"%s"`, escapeLucene(q.Title))
	if relevance.IsSpecificAuthor(q.Author) {
		query += fmt.Sprintf(` AND artist:"%s"`, escapeLucene(q.Author))
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(musicBrainzWorkLimit))
	params.Set("inc", "artist-rels+tags+aliases")

	var resp mbWorkSearch
	if _, err := m.client.getJSON(ctx, "/work", params, &resp); err != nil {
		return nil, unavailable(MusicBrainzName, err)
	}

	records := make([]models.CandidateRecord, 0, len(resp.Works))
	for i, w := range resp.Works {
		rec := workCandidate(w)
		if i < musicBrainzReleaseLookups {
			year, err := m.earliestReleaseYear(ctx, w.ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				slog.Warn("Failed to get earliest release year", "work", w.ID, "error", err)
			}
			rec.PublicationYear = year
		}
		records = append(records, rec)
	}

	confidence := workConfidence(q, resp.Works)
	for i := range records {
		records[i].Confidence = confidence
	}
	return records, nil
}

func workCandidate(w mbWork) models.CandidateRecord {
	rec := models.CandidateRecord{
		Title:              w.Title,
		Authors:            w.composers(),
		SourceName:         MusicBrainzName,
		SourceID:           w.ID,
		SourceURL:          "https://musicbrainz.org/work/" + w.ID,
		CategoryHint:       models.CategoryMusical,
		CategoryConfidence: workCategoryConfidence,
		CategoryBasis:      "musical work entity",
	}
	if len(w.Tags) > 0 {
		tags := make([]string, 0, len(w.Tags))
		for _, t := range w.Tags {
			tags = append(tags, t.Name)
		}
		rec.CategoryBasis += " tagged " + strings.Join(tags, ", ")
	}
	return rec
}

func (w mbWork) composers() []string {
	var names []string
	for _, r := range w.Relations {
		if r.Type == "composer" && r.Artist != nil && r.Artist.Name != "" {
			names = append(names, r.Artist.Name)
		}
	}
	return names
}

// bestWork mirrors the service's own ranking: title containment, composer
// match, then richer metadata
func bestWork(q Query, works []mbWork) *mbWork {
	var best *mbWork
	bestScore := -1
	title := strings.ToLower(q.Title)
	author := strings.ToLower(q.Author)

	for i := range works {
		w := &works[i]
		score := 0
		if textnorm.Contains(title, strings.ToLower(w.Title)) {
			score += 50
		}
		for _, c := range w.composers() {
			if textnorm.Contains(author, strings.ToLower(c)) {
				score += 40
				break
			}
		}
		if len(w.composers()) > 0 {
			score += 10
		}
		if len(w.Tags) > 0 {
			score += 5
		}
		if score > bestScore {
			best, bestScore = w, score
		}
	}
	return best
}

func workConfidence(q Query, works []mbWork) float64 {
	best := bestWork(q, works)
	if best == nil {
		return 0
	}

	confidence := 0.3
	title := strings.ToLower(q.Title)
	switch bt := strings.ToLower(best.Title); {
	case bt == title:
		confidence += 0.4
	case strings.Contains(bt, title):
		confidence += 0.2
	}

	author := strings.ToLower(strings.TrimSpace(q.Author))
	if author != "" {
		for _, c := range best.composers() {
			if strings.Contains(strings.ToLower(c), author) {
				confidence += 0.3
				break
			}
		}
	}
	return min(confidence, 1)
}

func (m *MusicBrainz) earliestReleaseYear(ctx context.Context, workID string) (*int, error) {
	if workID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", "wid:"+workID)
	params.Set("fmt", "json")
	params.Set("limit", "50")
	params.Set("inc", "releases")

	var resp mbRecordingSearch
	if _, err := m.client.getJSON(ctx, "/recording", params, &resp); err != nil {
		return nil, err
	}

	var earliest *int
	for _, rec := range resp.Recordings {
		for _, rel := range rec.Releases {
			y, ok := leadingYear(rel.Date)
			if ok && (earliest == nil || y < *earliest) {
				earliest = models.Year(y)
			}
		}
	}
	return earliest, nil
}

// LookupAuthor searches artists and returns the best match's life facts
func (m *MusicBrainz) LookupAuthor(ctx context.Context, name string) (*models.AuthorFacts, error) {
	if !relevance.IsSpecificAuthor(name) {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf(`artist:"%s"`, escapeLucene(name)))
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(musicBrainzArtistLimit))

	var resp mbArtistSearch
	if _, err := m.client.getJSON(ctx, "/artist", params, &resp); err != nil {
		return nil, unavailable(MusicBrainzName, err)
	}

	best := bestArtist(name, resp.Artists)
	if best == nil {
		return nil, nil
	}

	facts := &models.AuthorFacts{
		Name:       best.Name,
		Country:    best.Country,
		Source:     MusicBrainzName,
		Confidence: artistConfidence,
	}
	if y, ok := leadingYear(best.LifeSpan.End); ok {
		facts.DeathYear = models.Year(y)
	}
	return facts, nil
}

func bestArtist(name string, artists []mbArtist) *mbArtist {
	var best *mbArtist
	bestScore := -1
	target := strings.ToLower(strings.TrimSpace(name))

	for i := range artists {
		a := &artists[i]
		n := strings.ToLower(a.Name)
		score := 0
		switch {
		case n == target:
			score += 100
		case textnorm.Contains(target, n):
			score += 50
		}
		if _, ok := leadingYear(a.LifeSpan.End); ok {
			score += 20
		}
		if _, ok := leadingYear(a.LifeSpan.Begin); ok {
			score += 10
		}
		if a.Country != "" {
			score += 5
		}
		if score > bestScore {
			best, bestScore = a, score
		}
	}
	return best
}

// leadingYear reads the year from "YYYY", "YYYY-MM" or "YYYY-MM-DD"
func leadingYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

var luceneEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeLucene(s string) string {
	return luceneEscaper.Replace(strings.TrimSpace(s))
}
