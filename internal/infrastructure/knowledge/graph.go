package knowledge

import (
	"iacgen/internal/domain/entity"
)

// graphStrategy ranks over an undirected graph whose nodes are snippets,
// keywords and resource types, with edges from each snippet to its terms.
// A candidate scores by the request-derived terms reachable within distance
// one, with each matched term discounted by its node degree so overly
// generic hub terms contribute less. This captures second-order relatedness:
// two snippets sharing a resource type relate even without literal keyword
// overlap.
type graphStrategy struct {
	// neighbors is the union of each snippet's keywords and resource types.
	neighbors map[string]map[string]struct{}
	// degree counts how many snippets a term node connects to.
	degree map[string]int
}

func newGraphStrategy(kb *KnowledgeBase) *graphStrategy {
	st := &graphStrategy{
		neighbors: make(map[string]map[string]struct{}, kb.Len()),
		degree:    make(map[string]int),
	}
	for _, s := range kb.Snippets() {
		terms := termSet(s.Keywords)
		for _, rt := range s.ResourceTypes {
			terms[rt] = struct{}{}
		}
		st.neighbors[s.ID] = terms
		for t := range terms {
			st.degree[t]++
		}
	}
	return st
}

func (st *graphStrategy) Name() string { return StrategyGraph }

func (st *graphStrategy) Score(req requestTerms, s *entity.Snippet) float64 {
	total := req.size()
	if total == 0 {
		return 0
	}

	var sum float64
	for term := range st.neighbors[s.ID] {
		_, inTokens := req.tokens[term]
		_, inResources := req.resources[term]
		if !inTokens && !inResources {
			continue
		}
		if deg := st.degree[term]; deg > 0 {
			sum += 1.0 / float64(deg)
		}
	}

	return sum / float64(total)
}
