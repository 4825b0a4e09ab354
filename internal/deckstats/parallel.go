package deckstats

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/deckforge/internal/roles"
)

// minChunk is the smallest number of decks worth handing to a worker.
const minChunk = 256

// BuildParallel is Build with the counting pass split across workers. Each worker
// tallies its own chunk and the partial tallies are merged in chunk order, so the
// result is identical to Build. workers <= 0 uses GOMAXPROCS.
func BuildParallel(ctx context.Context, decks [][]string, classifier *roles.Classifier, workers int) (*Model, error) {
	if len(decks) == 0 {
		return nil, ErrEmptyCorpus
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(decks) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	if chunk >= len(decks) {
		return Build(decks, classifier)
	}

	parts := make([]*tally, (len(decks)+chunk-1)/chunk)
	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		start := i * chunk
		end := min(start+chunk, len(decks))
		g.Go(func() error {
			t := newTally()
			for _, d := range decks[start:end] {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.addDeck(d, classifier)
			}
			parts[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newTally()
	for _, p := range parts {
		total.merge(p)
	}
	return total.finalize(), nil
}
