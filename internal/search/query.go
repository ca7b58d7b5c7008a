package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/NickLinnik/LocalLibrary/internal/normalize"
)

// Params configures a search.
type Params struct {
	Query  string
	Limit  int
	Offset int
}

// Result is one page of hits, best first.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a matching book.
type Hit struct {
	BookID int64   `json:"book_id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
}

// Search runs a free-text query across title, author, genres, language and
// summary. An exact 13 digit ISBN also matches. A blank query finds nothing.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	result := &Result{Query: params.Query, Hits: []Hit{}}
	q := normalize.Fold(strings.TrimSpace(params.Query))
	if q == "" {
		return result, nil
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(q), params.Limit, params.Offset, false)
	req.Fields = []string{"display_title", "display_author"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result.Total = res.Total
	result.TookMs = res.Took.Milliseconds()
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			s.logger.Warn("search hit with foreign id", "id", h.ID)
			continue
		}
		hit := Hit{BookID: id, Score: h.Score}
		if t, ok := h.Fields["display_title"].(string); ok {
			hit.Title = t
		}
		if a, ok := h.Fields["display_author"].(string); ok {
			hit.Author = a
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery ORs field matches, weighting titles over authors and genres
// over summaries. q is already folded.
func buildQuery(q string) query.Query {
	match := func(field string, boost float64) query.Query {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(boost)
		return m
	}

	queries := []query.Query{
		match("title", 3.0),
		match("author", 2.0),
		match("genres", 1.5),
		match("language", 1.0),
		match("summary", 0.7),
	}

	// Single words get typo tolerance and prefix matching on titles.
	if !strings.ContainsAny(q, " \t") {
		fuzzy := bleve.NewFuzzyQuery(q)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		queries = append(queries, fuzzy)

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(q)
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			queries = append(queries, prefix)
		}
	}

	isbn := bleve.NewTermQuery(q)
	isbn.SetField("isbn")
	isbn.SetBoost(5.0)
	queries = append(queries, isbn)

	return bleve.NewDisjunctionQuery(queries...)
}
