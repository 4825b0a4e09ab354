// Package main is the deckforge command-line tool.
//
// Usage:
//
//	deckforge [-config path] <command> [flags]
//
// Commands: optimize, build, suggest, score, report, import, export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ramonehamilton/deckforge/internal/bootstrap"
	"github.com/ramonehamilton/deckforge/internal/config"
	"github.com/ramonehamilton/deckforge/internal/version"
)

var errUsage = errors.New("usage")

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, rt *bootstrap.Runtime, args []string, out io.Writer) error
}

var commands = []command{
	{"optimize", "map a reference deck onto a collection", runOptimize},
	{"build", "build the best playable deck", runBuild},
	{"suggest", "rank the best next cards for a partial deck", runSuggest},
	{"score", "evaluate a deck", runScore},
	{"report", "render corpus charts to HTML", runReport},
	{"import", "add decks to the stored corpus", runImport},
	{"export", "write card stats or saved decks as CSV/JSON", runExport},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deckforge [-config path] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("deckforge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Config file path (default: $DECKFORGE_CONFIG or ~/.deckforge/config.toml)")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "deckforge %s\n", version.GetVersion())
		return nil
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return errUsage
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == fs.Arg(0) {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", fs.Arg(0))
		usage(stderr)
		return errUsage
	}

	path, err := config.ResolvePath(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	rt, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	return cmd.run(ctx, rt, fs.Args()[1:], stdout)
}
