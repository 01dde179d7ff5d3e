package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/storage"
)

type stubAnalyzer struct {
	result analyzer.Result
	err    error
	got    analyzer.Request
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req analyzer.Request) (analyzer.Result, error) {
	s.got = req
	return s.result, s.err
}

func (s *stubAnalyzer) Unknown(req analyzer.Request, err error) analyzer.Result {
	return analyzer.Result{
		Request: req,
		Work:    models.NormalizedWork{Title: req.Title, Verdict: &models.CopyrightVerdict{Status: models.StatusUnknown}},
		Error:   err.Error(),
	}
}

func TestHealthcheck(t *testing.T) {
	srv := httptest.NewServer(New(&stubAnalyzer{}, nil).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleAnalyze(t *testing.T) {
	verdict := &models.CopyrightVerdict{Status: models.StatusPublicDomain, PublicDomainYear: models.Year(1923)}

	tests := []struct {
		name       string
		body       string
		stub       *stubAnalyzer
		wantStatus int
		wantInBody string
	}{
		{
			name:       "success",
			body:       `{"title":"Dracula","author":"Bram Stoker","country":"US"}`,
			stub:       &stubAnalyzer{result: analyzer.Result{Work: models.NormalizedWork{Title: "Dracula", Verdict: verdict}}},
			wantStatus: http.StatusOK,
			wantInBody: "Public Domain",
		},
		{
			name:       "invalid json",
			body:       `{"title":`,
			stub:       &stubAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantInBody: "Invalid JSON",
		},
		{
			name:       "invalid input",
			body:       `{"title":""}`,
			stub:       &stubAnalyzer{err: &copyright.InvalidInputError{Field: "title", Reason: "must not be empty"}},
			wantStatus: http.StatusBadRequest,
			wantInBody: "title",
		},
		{
			name:       "unsupported country",
			body:       `{"title":"Emma","country":"FR"}`,
			stub:       &stubAnalyzer{err: &copyright.ConfigurationError{Country: "FR"}},
			wantStatus: http.StatusBadRequest,
			wantInBody: "FR",
		},
		{
			name:       "no candidates",
			body:       `{"title":"Nothing"}`,
			stub:       &stubAnalyzer{err: &reconcile.ReconciliationError{}},
			wantStatus: http.StatusOK,
			wantInBody: "Unknown",
		},
		{
			name:       "store failure",
			body:       `{"title":"Emma"}`,
			stub:       &stubAnalyzer{err: errors.New("disk full")},
			wantStatus: http.StatusInternalServerError,
			wantInBody: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.stub, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantInBody) {
				t.Errorf("Expected body to contain %q, got %s", tt.wantInBody, rec.Body.String())
			}
		})
	}
}

func TestHandleAnalyzePassesRequest(t *testing.T) {
	stub := &stubAnalyzer{}
	h := New(stub, nil)

	body := `{"title":"Clair de lune","author":"Debussy","work_type":"musical","country":"GB","work_category":"individual"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	h.Routes().ServeHTTP(httptest.NewRecorder(), req)

	if stub.got.Title != "Clair de lune" || stub.got.WorkType != "musical" || stub.got.Country != "GB" {
		t.Errorf("Unexpected request %+v", stub.got)
	}
	if stub.got.WorkCategory != models.WorkIndividual {
		t.Errorf("Expected individual, got %s", stub.got.WorkCategory)
	}
}

func TestHandleWorks(t *testing.T) {
	ctx := context.Background()
	store := storage.New()
	stored, err := store.Upsert(ctx, models.StoredWorkRecord{
		ContentKey: "abc123",
		Work:       models.NormalizedWork{Title: "Emma", AuthorName: "Jane Austen"},
	})
	if err != nil {
		t.Fatal(err)
	}

	routes := New(&stubAnalyzer{}, store).Routes()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"by id", "/api/works/" + stored.ID, http.StatusOK},
		{"by content key", "/api/works/abc123", http.StatusOK},
		{"missing", "/api/works/nope", http.StatusNotFound},
		{"list", "/api/works", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if rec.Code == http.StatusOK && !strings.Contains(rec.Body.String(), "Emma") {
				t.Errorf("Expected Emma in body, got %s", rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/works/"+stored.ID, nil))
	var got models.StoredWorkRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != stored.ID {
		t.Errorf("Expected ID %s, got %s", stored.ID, got.ID)
	}
}

func TestHandleWorksWithoutStore(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&stubAnalyzer{}, nil).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/works/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}
