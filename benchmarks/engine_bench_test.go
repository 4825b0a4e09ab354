// Package benchmarks measures corpus publishing and the deck operations on a
// synthetic corpus.
//
// To run:
//
//	go test -bench=. -benchmem ./benchmarks/...
//
// To compare results:
//
//	go install golang.org/x/perf/cmd/benchstat@latest
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > old.txt
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > new.txt
//	benchstat old.txt new.txt
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/engine"
	"github.com/ramonehamilton/deckforge/internal/metrics"
)

const poolSize = 120

func cardName(i int) string { return fmt.Sprintf("Card %03d", i) }

// syntheticCorpus draws n decks of 8 distinct cards from a skewed pool.
func syntheticCorpus(n int) []cards.Deck {
	rng := rand.New(rand.NewSource(42))
	decks := make([]cards.Deck, n)
	for i := range decks {
		seen := make(map[int]bool, 8)
		for len(decks[i]) < 8 {
			// Squaring the draw favours low indices, like a real meta.
			f := rng.Float64()
			c := int(f * f * poolSize)
			if seen[c] {
				continue
			}
			seen[c] = true
			decks[i] = append(decks[i], cards.Card{Name: cardName(c), Rarity: cards.RarityCommon, Level: 11})
		}
	}
	return decks
}

func syntheticCollection() []cards.Card {
	out := make([]cards.Card, 0, poolSize)
	for i := 0; i < poolSize; i += 2 {
		out = append(out, cards.Card{Name: cardName(i), Rarity: cards.RarityRare, Level: 9 + i%4})
	}
	return out
}

func newEngine(b *testing.B, decks int) *engine.Engine {
	b.Helper()
	e := engine.New(datasets.EmptyTables(), engine.Options{}, metrics.NewRecorder(), zerolog.Nop())
	if err := e.Publish(context.Background(), syntheticCorpus(decks)); err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkPublish(b *testing.B) {
	for _, n := range []int{1000, 10000} {
		corpus := syntheticCorpus(n)
		b.Run(fmt.Sprintf("decks=%d", n), func(b *testing.B) {
			e := engine.New(datasets.EmptyTables(), engine.Options{}, nil, zerolog.Nop())
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := e.Publish(context.Background(), corpus); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBuildDeck(b *testing.B) {
	e := newEngine(b, 5000)
	coll := syntheticCollection()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.BuildDeck(coll); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSuggestNextCard(b *testing.B) {
	e := newEngine(b, 5000)
	coll := syntheticCollection()
	partial := []string{cardName(0), cardName(2), cardName(4)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.SuggestNextCard(partial, coll, 5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimize(b *testing.B) {
	e := newEngine(b, 5000)
	coll := syntheticCollection()
	deck := syntheticCorpus(1)[0]
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Optimize(deck, coll); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelScore(b *testing.B) {
	e := newEngine(b, 5000)
	coll := syntheticCollection()
	deck := syntheticCorpus(1)[0].Names()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := e.ScoreDeck(deck, coll); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkEncodeOptimized compares encoding/json with go-json on an API response.
func BenchmarkEncodeOptimized(b *testing.B) {
	e := newEngine(b, 1000)
	result, err := e.Optimize(syntheticCorpus(1)[0], syntheticCollection())
	if err != nil || result == nil {
		b.Fatalf("optimize: %v", err)
	}

	b.Run("encoding/json", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := json.Marshal(result); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("go-json", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := gojson.Marshal(result); err != nil {
				b.Fatal(err)
			}
		}
	})
}
