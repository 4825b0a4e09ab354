package storage

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
	"github.com/ramonehamilton/deckforge/internal/storage/repository"
)

// Service groups the repositories over one database.
type Service struct {
	db          *DB
	corpus      repository.CorpusRepository
	collections repository.CollectionRepository
	savedDecks  repository.SavedDeckRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:          db,
		corpus:      repository.NewCorpusRepository(db.Conn()),
		collections: repository.NewCollectionRepository(db.Conn()),
		savedDecks:  repository.NewSavedDeckRepository(db.Conn()),
	}
}

// Corpus returns the corpus repository.
func (s *Service) Corpus() repository.CorpusRepository { return s.corpus }

// Collections returns the collection repository.
func (s *Service) Collections() repository.CollectionRepository { return s.collections }

// SavedDecks returns the saved deck repository.
func (s *Service) SavedDecks() repository.SavedDeckRepository { return s.savedDecks }

// ImportCorpus stores decks and returns the full stored corpus, ready to publish.
func (s *Service) ImportCorpus(ctx context.Context, decks []cards.Deck, source string) (*models.ImportResult, []cards.Deck, error) {
	result, err := s.corpus.ImportDecks(ctx, decks, source)
	if err != nil {
		return nil, nil, fmt.Errorf("import corpus: %w", err)
	}
	all, err := s.corpus.ListDecks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reload corpus: %w", err)
	}
	return result, all, nil
}

// Close closes the database.
func (s *Service) Close() error {
	return s.db.Close()
}
