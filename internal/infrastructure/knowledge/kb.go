package knowledge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"iacgen/internal/domain/entity"
)

// KnowledgeBase is an in-memory, read-only store of IaC snippets. It is
// built once from a source dataset and safely shared across concurrent
// sessions without locking.
type KnowledgeBase struct {
	snippets []*entity.Snippet
	byID     map[string]*entity.Snippet
}

// Stats describes the loaded knowledge base.
type Stats struct {
	Snippets      int `json:"snippets"`
	Keywords      int `json:"keywords"`
	ResourceTypes int `json:"resource_types"`
}

// Build constructs a knowledge base from raw dataset records. Records with
// an empty id, empty content, or a duplicate id are unusable and dropped.
// Records that carry no resource types get them extracted from content.
// Build fails with entity.ErrEmptyDataset when zero usable records remain.
func Build(records []*entity.Snippet) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		byID: make(map[string]*entity.Snippet),
	}

	for _, rec := range records {
		if rec == nil || rec.ID == "" || strings.TrimSpace(rec.Content) == "" {
			continue
		}
		if _, dup := kb.byID[rec.ID]; dup {
			continue
		}
		snip := &entity.Snippet{
			ID:            rec.ID,
			Title:         rec.Title,
			Content:       rec.Content,
			Keywords:      normalizeTerms(rec.Keywords),
			ResourceTypes: normalizeTerms(rec.ResourceTypes),
		}
		if len(snip.ResourceTypes) == 0 {
			snip.ResourceTypes = extractResourceTypes(snip.Content)
		}
		kb.byID[snip.ID] = snip
		kb.snippets = append(kb.snippets, snip)
	}

	if len(kb.snippets) == 0 {
		return nil, entity.ErrEmptyDataset
	}

	// Stable iteration order makes retrieval reproducible regardless of
	// input order.
	sort.Slice(kb.snippets, func(i, j int) bool {
		return kb.snippets[i].ID < kb.snippets[j].ID
	})

	return kb, nil
}

// LoadRecords reads the one-record-per-line persistence format. Malformed
// lines are skipped and counted rather than aborting the whole load.
func LoadRecords(path string) (records []*entity.Snippet, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open knowledge base file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec entity.Snippet
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read knowledge base file: %w", err)
	}

	return records, skipped, nil
}

func (kb *KnowledgeBase) Snippets() []*entity.Snippet {
	return kb.snippets
}

func (kb *KnowledgeBase) Get(id string) (*entity.Snippet, bool) {
	s, ok := kb.byID[id]
	return s, ok
}

func (kb *KnowledgeBase) Len() int {
	return len(kb.snippets)
}

func (kb *KnowledgeBase) Stats() Stats {
	keywords := make(map[string]struct{})
	resources := make(map[string]struct{})
	for _, s := range kb.snippets {
		for _, kw := range s.Keywords {
			keywords[kw] = struct{}{}
		}
		for _, rt := range s.ResourceTypes {
			resources[rt] = struct{}{}
		}
	}
	return Stats{
		Snippets:      len(kb.snippets),
		Keywords:      len(keywords),
		ResourceTypes: len(resources),
	}
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
