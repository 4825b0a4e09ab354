// Package datasets decodes the JSON inputs supplied by external collaborators:
// the reference deck corpus, player collections and the static role and backup tables.
package datasets

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/ramonehamilton/deckforge/internal/backups"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

// Tables bundles the static lookup tables. Both are immutable once loaded.
type Tables struct {
	Roles   *roles.Classifier
	Backups *backups.Graph
}

// EmptyTables returns tables with no classified cards and no backups.
func EmptyTables() *Tables {
	return &Tables{Roles: roles.NewClassifier(nil), Backups: backups.NewGraph(nil)}
}

// DecodeCorpus reads a JSON array of decks, each an array of card records.
func DecodeCorpus(r io.Reader) ([]cards.Deck, error) {
	var decks []cards.Deck
	if err := json.NewDecoder(r).Decode(&decks); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return normalizeDecks(decks), nil
}

// DecodeDeck reads a single deck: a JSON array of card records.
func DecodeDeck(r io.Reader) (cards.Deck, error) {
	var deck cards.Deck
	if err := json.NewDecoder(r).Decode(&deck); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	return normalizeDecks([]cards.Deck{deck})[0], nil
}

// DecodeCollection reads a JSON array of owned card records.
func DecodeCollection(r io.Reader) ([]cards.Card, error) {
	var collection []cards.Card
	if err := json.NewDecoder(r).Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	for i := range collection {
		collection[i].Rarity = cards.ParseRarity(string(collection[i].Rarity))
	}
	return collection, nil
}

// DecodeBackups reads the backup table and builds the graph.
func DecodeBackups(r io.Reader) (*backups.Graph, error) {
	var entries []backups.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode backups: %w", err)
	}
	return backups.NewGraph(entries), nil
}

// DecodeRoles reads a role -> card names object and builds the classifier.
func DecodeRoles(r io.Reader) (*roles.Classifier, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	table := make(map[roles.Role][]string, len(raw))
	for key, names := range raw {
		role, err := roles.ParseRole(key)
		if err != nil {
			return nil, fmt.Errorf("decode roles: %w", err)
		}
		table[role] = append(table[role], names...)
	}
	return roles.NewClassifier(table), nil
}

func normalizeDecks(decks []cards.Deck) []cards.Deck {
	for _, d := range decks {
		for i := range d {
			d[i].Rarity = cards.ParseRarity(string(d[i].Rarity))
		}
	}
	return decks
}

// LoadCorpus reads a corpus file.
func LoadCorpus(path string) ([]cards.Deck, error) {
	return loadFile(path, DecodeCorpus)
}

// LoadDeck reads a single deck file.
func LoadDeck(path string) (cards.Deck, error) {
	return loadFile(path, DecodeDeck)
}

// LoadCollection reads a collection file.
func LoadCollection(path string) ([]cards.Card, error) {
	return loadFile(path, DecodeCollection)
}

// LoadTables reads the role and backup tables. An empty path yields an empty table.
func LoadTables(rolesPath, backupsPath string) (*Tables, error) {
	t := EmptyTables()
	if rolesPath != "" {
		c, err := loadFile(rolesPath, DecodeRoles)
		if err != nil {
			return nil, err
		}
		t.Roles = c
	}
	if backupsPath != "" {
		g, err := loadFile(backupsPath, DecodeBackups)
		if err != nil {
			return nil, err
		}
		t.Backups = g
	}
	return t, nil
}

func loadFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
