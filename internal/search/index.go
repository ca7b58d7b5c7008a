package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

// Index wraps a Bleve index of books.
//
// All methods are safe for concurrent use. Rebuild takes the write lock and
// blocks searches until the fresh index is filled.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	fresh  bool
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory holding the index. Empty keeps the index in
	// memory, which tests and the CLI's dry runs use.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does. A mismatch on
// startup drops the index; the caller then refills it with Rebuild.
const mappingVersion = "1"

const batchSize = 500

// Open creates or opens the book index. An index with a stale mapping or
// one that fails to open is removed and recreated empty; Fresh reports
// whether the index started empty.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &Index{index: index, logger: logger, fresh: true}, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "books.bleve")
	versionPath := filepath.Join(opts.DataPath, "books.version")

	var (
		index bleve.Index
		fresh bool
	)
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("search index mapping changed, recreating",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
		if index == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		fresh = true
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger, fresh: fresh}, nil
}

// Fresh reports whether Open created the index rather than reopening one.
// A fresh index needs Rebuild before searches see existing books.
func (s *Index) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fresh
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBook adds or replaces one book.
func (s *Index) IndexBook(_ context.Context, b *domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := NewBookDocument(b)
	if err := s.index.Index(doc.ID, doc.toMap()); err != nil {
		return fmt.Errorf("index book %d: %w", b.ID, err)
	}
	return nil
}

// IndexBooks adds or replaces books in batches.
func (s *Index) IndexBooks(_ context.Context, books []domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexBooks(books)
}

func (s *Index) indexBooks(books []domain.Book) error {
	for i := 0; i < len(books); i += batchSize {
		end := min(i+batchSize, len(books))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			doc := NewBookDocument(&books[j])
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index book %d: %w", books[j].ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteBook removes a book. Deleting an unknown book is not an error.
func (s *Index) DeleteBook(_ context.Context, bookID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID(bookID))
}

// DocumentCount returns the number of indexed books.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and fills a fresh one with books.
func (s *Index) Rebuild(_ context.Context, books []domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.fresh = false

	if err := s.indexBooks(books); err != nil {
		return err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "books", len(books))
	return nil
}
