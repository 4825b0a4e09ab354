package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ramonehamilton/deckforge/internal/bootstrap"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/charts"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/export"
)

var errNoResult = errors.New("no result")

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// collectionFlags registers -collection and -player, resolved against a file or
// the stored collection.
type collectionFlags struct {
	path   *string
	player *string
}

func addCollectionFlags(fs *flag.FlagSet) collectionFlags {
	return collectionFlags{
		path:   fs.String("collection", "", "Collection JSON file"),
		player: fs.String("player", "", "Stored player tag (requires storage)"),
	}
}

func (c collectionFlags) load(ctx context.Context, rt *bootstrap.Runtime) ([]cards.Card, error) {
	switch {
	case *c.path != "":
		return datasets.LoadCollection(*c.path)
	case *c.player != "":
		if rt.Store == nil {
			return nil, errors.New("-player requires storage.path in the config")
		}
		return rt.Store.Collections().GetCollection(ctx, *c.player)
	default:
		return nil, nil
	}
}

func runOptimize(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)
	deckPath := fs.String("deck", "", "Reference deck JSON file")
	coll := addCollectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *deckPath == "" {
		return errors.New("-deck is required")
	}

	deck, err := datasets.LoadDeck(*deckPath)
	if err != nil {
		return err
	}
	collection, err := coll.load(ctx, rt)
	if err != nil {
		return err
	}
	result, err := rt.Engine.Optimize(deck, collection)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: deck must have 8 distinct named cards", errNoResult)
	}
	return writeJSON(out, result)
}

func runBuild(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	partial := fs.String("partial", "", "Comma-separated cards to keep")
	coll := addCollectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	collection, err := coll.load(ctx, rt)
	if err != nil {
		return err
	}
	deck, err := rt.Engine.BuildFrom(splitNames(*partial), collection)
	if err != nil {
		return err
	}
	if deck == nil {
		return fmt.Errorf("%w: not enough playable cards", errNoResult)
	}
	eval, err := rt.Engine.ScoreDeck(deck, collection)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"cards": deck, "evaluation": eval})
}

func runSuggest(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	partial := fs.String("partial", "", "Comma-separated cards already in the deck")
	topK := fs.Int("k", 0, "Number of suggestions (0 = config default)")
	coll := addCollectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	collection, err := coll.load(ctx, rt)
	if err != nil {
		return err
	}
	sugg, err := rt.Engine.SuggestNextCard(splitNames(*partial), collection, *topK)
	if err != nil {
		return err
	}
	return writeJSON(out, sugg)
}

func runScore(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	deck := fs.String("deck", "", "Comma-separated deck cards")
	coll := addCollectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	names := splitNames(*deck)
	if len(names) == 0 {
		return errors.New("-deck is required")
	}

	collection, err := coll.load(ctx, rt)
	if err != nil {
		return err
	}
	b, err := rt.Engine.ScoreDeck(names, collection)
	if err != nil {
		return err
	}
	return writeJSON(out, b)
}

func runReport(_ context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	outPath := fs.String("out", "deckforge-report.html", "Output HTML file")
	top := fs.Int("top", 20, "Number of cards in the frequency chart")
	open := fs.Bool("open", false, "Open the report in a browser")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	model := rt.Engine.Model()
	if model == nil {
		return errors.New("no corpus loaded")
	}
	if err := charts.WriteReport(model, *top, *outPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", *outPath)
	if *open {
		return charts.OpenInBrowser(*outPath)
	}
	return nil
}

func runImport(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	corpusPath := fs.String("corpus", "", "Corpus JSON file to import")
	source := fs.String("source", "cli", "Source label stored with the decks")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *corpusPath == "" {
		return errors.New("-corpus is required")
	}
	if rt.Store == nil {
		return errors.New("import requires storage.path in the config")
	}

	decks, err := datasets.LoadCorpus(*corpusPath)
	if err != nil {
		return err
	}
	result, all, err := rt.Store.ImportCorpus(ctx, decks, *source)
	if err != nil {
		return err
	}
	if err := rt.Engine.Publish(ctx, all); err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"imported":    result.Imported,
		"skipped":     result.Skipped,
		"corpusDecks": len(all),
	})
}

func runExport(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	kind := fs.String("type", "cards", "What to export: cards or decks")
	formatStr := fs.String("format", "csv", "Output format: csv or json")
	outPath := fs.String("out", "", "Output file (default: stdout)")
	top := fs.Int("top", 0, "Limit card rows (0 = all)")
	player := fs.String("player", "", "Only decks saved for this player tag")
	overwrite := fs.Bool("overwrite", false, "Replace an existing output file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	format, err := export.ParseFormat(*formatStr)
	if err != nil {
		return err
	}

	var rows any
	switch *kind {
	case "cards":
		model := rt.Engine.Model()
		if model == nil {
			return errors.New("no corpus loaded")
		}
		rows = export.CardRows(model, *top)
	case "decks":
		if rt.Store == nil {
			return errors.New("exporting decks requires storage.path in the config")
		}
		decks, err := rt.Store.SavedDecks().List(ctx, *player)
		if err != nil {
			return err
		}
		rows = export.SavedDeckRows(decks)
	default:
		return fmt.Errorf("unknown export type %q", *kind)
	}

	if *outPath == "" {
		return export.Write(out, format, rows, true)
	}
	exporter := export.NewExporter(export.Options{
		Format:     format,
		FilePath:   *outPath,
		PrettyJSON: true,
		Overwrite:  *overwrite,
	})
	if err := exporter.Export(rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s to %s\n", *kind, *outPath)
	return nil
}
