package services

import (
	"sync"
	"time"
)

// candidateCache remembers the candidate set most recently returned for
// each asset. The link path consults it so a follow-up submission can
// only designate a candidate the caller was actually shown; anything
// else is stale client state and fails with candidate_not_found.
type candidateCache struct {
	mu      sync.Mutex
	entries map[uint]*candidateEntry
}

type candidateEntry struct {
	similarities map[uint]int // occurrence ID -> similarity score
	expiresAt    time.Time
}

func newCandidateCache() *candidateCache {
	return &candidateCache{entries: make(map[uint]*candidateEntry)}
}

// Put replaces the remembered candidate set for the asset
func (c *candidateCache) Put(assetID uint, candidates []DuplicateCandidate, ttl time.Duration) {
	sims := make(map[uint]int, len(candidates))
	for _, cand := range candidates {
		sims[cand.OccurrenceID] = cand.Similarity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[assetID] = &candidateEntry{
		similarities: sims,
		expiresAt:    time.Now().Add(ttl),
	}
}

// Lookup returns the remembered similarity for an occurrence, if it was
// among the candidates most recently returned for the asset.
func (c *candidateCache) Lookup(assetID, occurrenceID uint) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[assetID]
	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, assetID)
		return 0, false
	}
	sim, ok := entry.similarities[occurrenceID]
	return sim, ok
}

// Invalidate drops the remembered candidate set for the asset
func (c *candidateCache) Invalidate(assetID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, assetID)
}
