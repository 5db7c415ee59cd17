package search

import (
	"sync"
	"time"
)

// Source supplies the customers an Index serves.
type Source interface {
	Searchables() ([]Customer, error)
}

// Index holds the current candidate list and serves search queries.
// Replace swaps the whole list; readers see either the old or the new one.
type Index struct {
	mu        sync.RWMutex
	customers []Customer
	byID      map[string]int
	normalize Normalizer
	loadedAt  time.Time
}

// NewIndex creates an empty index using the given normalization mode.
func NewIndex(mode string) *Index {
	return &Index{
		byID:      make(map[string]int),
		normalize: GetNormalizer(mode),
	}
}

// Load replaces the index content with everything src returns.
func (ix *Index) Load(src Source) error {
	customers, err := src.Searchables()
	if err != nil {
		return err
	}
	ix.Replace(customers)
	return nil
}

// Replace swaps in a new candidate list (hot reload).
func (ix *Index) Replace(customers []Customer) {
	list := make([]Customer, len(customers))
	copy(list, customers)
	byID := make(map[string]int, len(list))
	for i, c := range list {
		byID[c.ID] = i
	}

	ix.mu.Lock()
	ix.customers = list
	ix.byID = byID
	ix.loadedAt = time.Now()
	ix.mu.Unlock()
}

// Hit is a matched customer with its highlighted fields.
type Hit struct {
	Customer Customer  `json:"customer"`
	ID       []Segment `json:"id_segments"`
	Name     []Segment `json:"name_segments"`
	Phone    []Segment `json:"phone_segments"`
}

// SearchResult is the response for a single query.
type SearchResult struct {
	Query Query `json:"query"`
	Hits  []Hit `json:"hits"`
	Total int   `json:"total"`
}

// Search matches q against the indexed customers and highlights each hit
// the way the staff search screen shows it.
func (ix *Index) Search(q Query) *SearchResult {
	ix.mu.RLock()
	matched := MatchWith(ix.normalize, q, ix.customers)
	ix.mu.RUnlock()

	result := &SearchResult{Query: q, Hits: make([]Hit, 0, len(matched))}
	for _, c := range matched {
		result.Hits = append(result.Hits, Hit{
			Customer: c,
			ID:       Highlight(c.ID, q.ByID),
			Name:     Highlight(c.FullName(), q.ByName),
			Phone:    Highlight(c.Phone, q.ByPhone),
		})
	}
	result.Total = len(result.Hits)
	return result
}

// IsEmptyQuery reports whether q is blank under the index's normalization
// mode, in which case Search returns no hits.
func (ix *Index) IsEmptyQuery(q Query) bool {
	return q.IsEmptyWith(ix.normalize)
}

// Lookup returns the customer with the given ID.
func (ix *Index) Lookup(id string) (Customer, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i, ok := ix.byID[id]
	if !ok {
		return Customer{}, false
	}
	return ix.customers[i], true
}

// Len returns the number of indexed customers.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.customers)
}

// LoadedAt returns when the index content was last replaced.
func (ix *Index) LoadedAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loadedAt
}
