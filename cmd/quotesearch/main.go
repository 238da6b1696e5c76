// Command quotesearch runs the Arabic text tools from the command line:
// normalizing, matching, highlighting and searching a local quote file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/matcher"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/quotes"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/logger"
)

const usage = `usage: quotesearch <command> [flags] [args]

commands:
  search     -corpus FILE [-limit N] [-mode phrase|terms] [-fuzzy] [-json] QUERY
  normalize  TEXT
  contains   [-fuzzy] TEXT QUERY
  highlight  [-mode phrase|terms] TEXT QUERY
  count      TEXT QUERY
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "quotesearch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "search":
		return runSearch(ctx, args, stdout, stderr)
	case "normalize":
		if len(args) != 1 {
			return fmt.Errorf("normalize takes one argument")
		}
		fmt.Fprintln(stdout, normalize.Normalize(args[0]))
		return nil
	case "contains":
		fs := flag.NewFlagSet("contains", flag.ContinueOnError)
		fs.SetOutput(stderr)
		fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("contains takes TEXT and QUERY")
		}
		fmt.Fprintln(stdout, matcher.Contains(fs.Arg(0), fs.Arg(1), *fuzzy))
		return nil
	case "highlight":
		fs := flag.NewFlagSet("highlight", flag.ContinueOnError)
		fs.SetOutput(stderr)
		mode := fs.String("mode", "phrase", "highlight mode: phrase or terms")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("highlight takes TEXT and QUERY")
		}
		fmt.Fprintln(stdout, render(highlight.Apply(highlight.ParseMode(*mode), fs.Arg(0), fs.Arg(1))))
		return nil
	case "count":
		if len(args) != 2 {
			return fmt.Errorf("count takes TEXT and QUERY")
		}
		fmt.Fprintln(stdout, matcher.CountOccurrences(args[0], args[1]))
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func runSearch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	corpus := fs.String("corpus", "configs/quotes.yaml", "quote file (.yaml, .yml or .json)")
	limit := fs.Int("limit", 10, "maximum results")
	mode := fs.String("mode", "phrase", "highlight mode: phrase or terms")
	fuzzy := fs.Bool("fuzzy", true, "enable fuzzy matching")
	asJSON := fs.Bool("json", false, "print results as JSON")
	level := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("search needs a QUERY")
	}
	if *limit < 1 {
		return fmt.Errorf("-limit must be positive")
	}
	slog.SetDefault(logger.New(stderr, *level, "text"))

	store := quotes.NewStore(1)
	report, err := quotes.LoadInto(ctx, store, quotes.FileSource{Path: *corpus})
	if err != nil {
		return fmt.Errorf("loading %s: %w", *corpus, err)
	}
	slog.Info("corpus loaded", "path", *corpus, "quotes", report.Loaded, "invalid", report.Invalid)

	plan := parser.Parse(strings.Join(fs.Args(), " "))
	result, err := executor.New(store).Execute(ctx, plan, executor.Options{
		Limit: *limit,
		Fuzzy: *fuzzy,
		Mode:  highlight.ParseMode(*mode),
	})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if len(result.Results) == 0 {
		fmt.Fprintln(stdout, "no matches")
		return nil
	}
	for _, hit := range result.Results {
		fmt.Fprintf(stdout, "%4d  %s\n", hit.Score, render(hit.Segments))
		if hit.Quote.Author != "" {
			fmt.Fprintf(stdout, "      - %s\n", hit.Quote.Author)
		}
	}
	fmt.Fprintf(stdout, "%d of %d matches\n", len(result.Results), result.TotalHits)
	return nil
}

// render marks highlighted segments with [[ and ]].
func render(segments []highlight.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Highlighted {
			b.WriteString("[[")
			b.WriteString(s.Text)
			b.WriteString("]]")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
