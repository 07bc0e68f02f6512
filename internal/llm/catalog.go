package llm

import "sync"

// Candidate pairs a model reference with the Provider that serves it.
type Candidate struct {
	// Ref is the "provider/model" reference, unique within a catalog.
	Ref      string
	Provider Provider
}

// ModelCatalog is an ordered list of candidate models with health flags.
// The Gateway consults it on every call, so health changes take effect
// without rebuilding anything. It replaces any notion of a hardcoded
// approved/broken model list.
type ModelCatalog struct {
	mu        sync.RWMutex
	order     []string
	byRef     map[string]Candidate
	unhealthy map[string]bool
}

// NewModelCatalog builds a catalog from candidates in preference order.
// All candidates start healthy.
func NewModelCatalog(candidates ...Candidate) *ModelCatalog {
	c := &ModelCatalog{
		byRef:     make(map[string]Candidate, len(candidates)),
		unhealthy: make(map[string]bool),
	}
	for _, cand := range candidates {
		if _, dup := c.byRef[cand.Ref]; dup {
			continue
		}
		c.order = append(c.order, cand.Ref)
		c.byRef[cand.Ref] = cand
	}
	return c
}

// Healthy returns the healthy candidates in preference order.
func (c *ModelCatalog) Healthy() []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Candidate, 0, len(c.order))
	for _, ref := range c.order {
		if !c.unhealthy[ref] {
			out = append(out, c.byRef[ref])
		}
	}
	return out
}

// All returns every candidate in preference order, healthy or not.
func (c *ModelCatalog) All() []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Candidate, 0, len(c.order))
	for _, ref := range c.order {
		out = append(out, c.byRef[ref])
	}
	return out
}

// Select returns the healthy candidates matching prefs, in prefs order.
// Unknown refs are skipped. An empty prefs selects all healthy candidates.
func (c *ModelCatalog) Select(prefs []string) []Candidate {
	if len(prefs) == 0 {
		return c.Healthy()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Candidate, 0, len(prefs))
	for _, ref := range prefs {
		cand, ok := c.byRef[ref]
		if !ok || c.unhealthy[ref] {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// Lookup returns the candidate for ref, if present and healthy.
func (c *ModelCatalog) Lookup(ref string) (Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cand, ok := c.byRef[ref]
	if !ok || c.unhealthy[ref] {
		return Candidate{}, false
	}
	return cand, true
}

// MarkUnhealthy flags a candidate so Select and Healthy skip it.
func (c *ModelCatalog) MarkUnhealthy(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byRef[ref]; ok {
		c.unhealthy[ref] = true
	}
}

// MarkHealthy clears a candidate's unhealthy flag.
func (c *ModelCatalog) MarkHealthy(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.unhealthy, ref)
}

// Len returns the number of candidates in the catalog.
func (c *ModelCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
