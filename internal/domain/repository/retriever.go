package repository

import (
	"iacgen/internal/domain/entity"
)

// SnippetRetriever ranks knowledge-base snippets against a request and
// returns a bounded, ordered context set. Implementations are read-only
// after construction and safe for concurrent use.
type SnippetRetriever interface {
	Query(text string, topK int) entity.RetrievalResult
}
