// Package storage keeps resolved works: an in-memory store for one-shot
// runs and a SQLite store for anything that should survive a restart.
package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// WorkStore is the full store surface used by the CLI and HTTP handlers
type WorkStore interface {
	identity.Store
	Get(ctx context.Context, id string) (*models.StoredWorkRecord, error)
	List(ctx context.Context) ([]models.StoredWorkRecord, error)
	Close() error
}

// MemoryStore holds works in a map guarded by a RWMutex
type MemoryStore struct {
	works map[string]*models.StoredWorkRecord
	keys  map[string]string
	mu    sync.RWMutex
}

func New() *MemoryStore {
	return &MemoryStore{
		works: make(map[string]*models.StoredWorkRecord),
		keys:  make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.StoredWorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.works[id]
	if !exists {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (s *MemoryStore) FindByKey(_ context.Context, contentKey string) (*models.StoredWorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, exists := s.keys[contentKey]
	if !exists {
		return nil, nil
	}
	c := *s.works[id]
	return &c, nil
}

// FindSimilar returns works sharing a significant title word or the
// normalized author, oldest first
func (s *MemoryStore) FindSimilar(_ context.Context, work models.NormalizedWork) ([]models.StoredWorkRecord, error) {
	terms := titleTerms(work.Title)
	author := identity.NormalizeAuthor(work.AuthorName)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.StoredWorkRecord
	for _, rec := range s.works {
		if author != "" && identity.NormalizeAuthor(rec.Work.AuthorName) == author {
			result = append(result, *rec)
			continue
		}
		words := textnorm.Words(identity.NormalizeTitle(rec.Work.Title), 2)
		for _, t := range terms {
			if _, ok := words[t]; ok {
				result = append(result, *rec)
				break
			}
		}
	}
	sortOldestFirst(result)
	return result, nil
}

// Upsert stores rec, assigning an ID to new records
func (s *MemoryStore) Upsert(_ context.Context, rec models.StoredWorkRecord) (models.StoredWorkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if old, exists := s.works[rec.ID]; exists && old.ContentKey != rec.ContentKey {
		delete(s.keys, old.ContentKey)
	}
	stored := rec
	s.works[rec.ID] = &stored
	if _, taken := s.keys[rec.ContentKey]; !taken {
		s.keys[rec.ContentKey] = rec.ID
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.StoredWorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.StoredWorkRecord, 0, len(s.works))
	for _, rec := range s.works {
		result = append(result, *rec)
	}
	sortOldestFirst(result)
	return result, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, exists := s.works[id]; exists {
		if s.keys[rec.ContentKey] == id {
			delete(s.keys, rec.ContentKey)
		}
		delete(s.works, id)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// titleTerms are the normalized title words long enough to be worth
// matching on, longest first
func titleTerms(title string) []string {
	words := textnorm.Words(identity.NormalizeTitle(title), 2)
	terms := make([]string, 0, len(words))
	for w := range words {
		terms = append(terms, w)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return terms
}

func sortOldestFirst(recs []models.StoredWorkRecord) {
	slices.SortStableFunc(recs, func(a, b models.StoredWorkRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
