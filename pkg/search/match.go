package search

import "strings"

// MaxResults caps the number of customers returned by Match.
const MaxResults = 20

// Match returns the candidates matching any non-empty component of q, in
// their original order, capped at MaxResults. An all-empty query matches
// nothing.
func Match(q Query, candidates []Customer) []Customer {
	return MatchWith(Normalize, q, candidates)
}

// MatchWith is Match with a custom normalizer.
func MatchWith(normalize Normalizer, q Query, candidates []Customer) []Customer {
	nID := normalize(q.ByID)
	nName := normalize(q.ByName)
	nPhone := normalize(q.ByPhone)

	results := []Customer{}
	if nID == "" && nName == "" && nPhone == "" {
		return results
	}

	for _, c := range candidates {
		if !matches(normalize, c, nID, nName, nPhone) {
			continue
		}
		results = append(results, c)
		if len(results) == MaxResults {
			break
		}
	}
	return results
}

func matches(normalize Normalizer, c Customer, nID, nName, nPhone string) bool {
	if nID != "" && strings.Contains(normalize(c.ID), nID) {
		return true
	}
	if nName != "" && strings.Contains(normalize(c.DisplayName()), nName) {
		return true
	}
	return nPhone != "" && strings.Contains(normalize(c.Phone), nPhone)
}
