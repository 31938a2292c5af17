package domain

import "sort"

// DefaultTopK is the default number of chunks retrieved per query.
const DefaultTopK = 5

// Query is a free-text topic query with optional metadata filters.
// Empty filter fields mean unrestricted.
type Query struct {
	// Topic is the free-text query.
	Topic string

	// Chapter restricts results to one chapter when non-empty.
	Chapter string

	// Subject restricts results to one subject when non-empty.
	Subject string

	// TopK is the result count; DefaultTopK when zero.
	TopK int
}

// Filter returns the exact-match metadata filter for this query.
func (q Query) Filter() Filter {
	return Filter{Chapter: q.Chapter, Subject: q.Subject}
}

// Limit returns the effective result count.
func (q Query) Limit() int {
	if q.TopK <= 0 {
		return DefaultTopK
	}
	return q.TopK
}

// Filter is an exact-match conjunction over chunk metadata.
// Empty fields match everything.
type Filter struct {
	Chapter string
	Subject string
}

// Empty reports whether the filter is unrestricted.
func (f Filter) Empty() bool {
	return f.Chapter == "" && f.Subject == ""
}

// Matches reports whether a chunk satisfies the filter.
func (f Filter) Matches(chapter, subject string) bool {
	if f.Chapter != "" && f.Chapter != chapter {
		return false
	}
	if f.Subject != "" && f.Subject != subject {
		return false
	}
	return true
}

// ScoredChunk is one retrieval hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is a ranked sequence of scored chunks, unique by
// chunk identifier. Ordering is reproducible: descending score with
// ascending chunk identifier as the tie-break.
type RetrievalResult struct {
	Hits []ScoredChunk
}

// Empty reports whether the result contains no hits.
func (r RetrievalResult) Empty() bool {
	return len(r.Hits) == 0
}

// Sort orders hits by score descending, tie-broken by ascending
// chunk identifier so equal scores always order the same way.
func (r *RetrievalResult) Sort() {
	sort.SliceStable(r.Hits, func(i, j int) bool {
		if r.Hits[i].Score != r.Hits[j].Score {
			return r.Hits[i].Score > r.Hits[j].Score
		}
		return r.Hits[i].Chunk.ID < r.Hits[j].Chunk.ID
	})
}

// Truncate drops hits beyond k.
func (r *RetrievalResult) Truncate(k int) {
	if k >= 0 && len(r.Hits) > k {
		r.Hits = r.Hits[:k]
	}
}

// Context is generation-ready text assembled from a retrieval result.
type Context struct {
	// Text is the concatenated chunk content with attribution headers,
	// or an explicit no-content marker when Empty is true.
	Text string

	// ChunkIDs lists the included chunks in rank order.
	ChunkIDs []string

	// Empty signals that no relevant content was found, so the
	// generation step can branch to a degraded-but-valid response.
	Empty bool
}
