package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping declares the book document fields. Text arrives folded
// (see NewBookDocument), so the English analyzer only has to tokenize and
// stem. Display fields are stored for result lists and never searched.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	for _, field := range []string{"title", "author", "genres", "language"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.IncludeTermVectors = true
		doc.AddFieldMappingsAt(field, fm)
	}

	// Summaries can be long; index only.
	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = en.AnalyzerName
	summary.Store = false
	doc.AddFieldMappingsAt("summary", summary)

	isbn := bleve.NewTextFieldMapping()
	isbn.Analyzer = keyword.Name
	isbn.Store = true
	doc.AddFieldMappingsAt("isbn", isbn)

	for _, field := range []string{"display_title", "display_author"} {
		fm := bleve.NewTextFieldMapping()
		fm.Index = false
		fm.Store = true
		doc.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
