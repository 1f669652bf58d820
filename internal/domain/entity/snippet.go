package entity

// Snippet is one retrievable IaC example from the knowledge base.
// Records are built once from the source dataset and read-only afterward.
type Snippet struct {
	ID            string   `json:"id" bson:"id"`
	Title         string   `json:"title" bson:"title"`
	Content       string   `json:"content" bson:"content"`
	Keywords      []string `json:"keywords" bson:"keywords"`
	ResourceTypes []string `json:"resource_types" bson:"resource_types"`
}

// ScoredSnippet pairs a snippet with its relevance score for one request.
type ScoredSnippet struct {
	Snippet *Snippet `json:"snippet"`
	Score   float64  `json:"score"`
}

// RetrievalResult is an ordered set of scored snippets, score non-increasing,
// length bounded by the configured topK. Recomputed per request.
type RetrievalResult struct {
	Query    string          `json:"query"`
	Snippets []ScoredSnippet `json:"snippets"`
}

func (r RetrievalResult) Empty() bool {
	return len(r.Snippets) == 0
}
