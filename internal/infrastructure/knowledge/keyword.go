package knowledge

import (
	"iacgen/internal/domain/entity"
)

// resourceWeight makes an exact resource-type mention count double a generic
// keyword match.
const resourceWeight = 2.0

// keywordStrategy scores snippets by normalized overlap between request
// tokens and the union of a snippet's keywords and resource types.
type keywordStrategy struct {
	// terms precomputed per snippet id
	keywords  map[string]map[string]struct{}
	resources map[string]map[string]struct{}
}

func newKeywordStrategy(kb *KnowledgeBase) *keywordStrategy {
	st := &keywordStrategy{
		keywords:  make(map[string]map[string]struct{}, kb.Len()),
		resources: make(map[string]map[string]struct{}, kb.Len()),
	}
	for _, s := range kb.Snippets() {
		st.keywords[s.ID] = termSet(s.Keywords)
		st.resources[s.ID] = termSet(s.ResourceTypes)
	}
	return st
}

func (st *keywordStrategy) Name() string { return StrategyKeyword }

func (st *keywordStrategy) Score(req requestTerms, s *entity.Snippet) float64 {
	keywords := st.keywords[s.ID]
	resources := st.resources[s.ID]

	denom := float64(len(keywords)) + resourceWeight*float64(len(resources))
	if denom == 0 {
		return 0
	}

	var matched float64
	for kw := range keywords {
		if _, ok := req.tokens[kw]; ok {
			matched++
		}
	}
	for rt := range resources {
		if _, ok := req.resources[rt]; ok {
			matched += resourceWeight
			continue
		}
		if _, ok := req.tokens[rt]; ok {
			matched += resourceWeight
		}
	}

	return matched / denom
}

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}
