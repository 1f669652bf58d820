package knowledge

import (
	"fmt"
	"sort"

	"iacgen/internal/domain/entity"
	"iacgen/internal/infrastructure/metrics"
)

const (
	StrategyKeyword = "keyword"
	StrategyGraph   = "graph"
)

// Strategy scores one snippet against a tokenized request. Scores are
// always within [0,1].
type Strategy interface {
	Name() string
	Score(req requestTerms, s *entity.Snippet) float64
}

// NewStrategy builds the ranking strategy selected by configuration.
func NewStrategy(name string, kb *KnowledgeBase) (Strategy, error) {
	switch name {
	case StrategyKeyword, "":
		return newKeywordStrategy(kb), nil
	case StrategyGraph:
		return newGraphStrategy(kb), nil
	default:
		return nil, fmt.Errorf("unknown retrieval strategy %q", name)
	}
}

// Retriever ranks knowledge-base snippets for a request. Read-only after
// construction.
type Retriever struct {
	kb       *KnowledgeBase
	strategy Strategy
}

func NewRetriever(kb *KnowledgeBase, strategy Strategy) *Retriever {
	return &Retriever{kb: kb, strategy: strategy}
}

// Query returns the topK best-scoring snippets, score non-increasing, ties
// broken by snippet id ascending. An empty request yields an empty result.
func (r *Retriever) Query(text string, topK int) entity.RetrievalResult {
	result := entity.RetrievalResult{Query: text}
	if topK <= 0 {
		return result
	}
	metrics.IncRetrievalQuery(r.strategy.Name())

	req := parseRequest(text)
	if req.empty() {
		return result
	}

	var scored []entity.ScoredSnippet
	for _, s := range r.kb.Snippets() {
		score := r.strategy.Score(req, s)
		if score <= 0 {
			continue
		}
		scored = append(scored, entity.ScoredSnippet{Snippet: s, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Snippet.ID < scored[j].Snippet.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	result.Snippets = scored
	return result
}
