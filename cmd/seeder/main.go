// Command seeder writes demo data: a synthetic medication catalog as CSV,
// a file of random symptom queries, and optionally per-user history in a
// medrank database.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/poiesic/medrank"
	"github.com/poiesic/medrank/batch"
	"github.com/poiesic/medrank/catalog"
)

var (
	seed        = flag.Uint64("seed", 42, "seed for the synthetic catalog and queries")
	catalogFile = flag.String("catalog", "medications.csv", "catalog CSV to write")
	queryFile   = flag.String("queries", "", "query file to write (skipped when empty)")
	queryCount  = flag.Int("count", 100, "number of queries to generate")
	dbPath      = flag.String("db", "", "database to seed with history (skipped when empty)")
	users       = flag.String("users", "alice,bob,carol", "comma separated users the history is spread over")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// randomQueries yields count normalized symptom lists of one to three symptoms.
func randomQueries(seed uint64, count int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		rng := rand.New(rand.NewPCG(seed, ^seed))
		for range count {
			n := rng.IntN(3) + 1
			tags := make([]string, n)
			for i, p := range rng.Perm(len(catalog.Symptoms))[:n] {
				tags[i] = catalog.NormalizeTag(catalog.Symptoms[p])
			}
			if !yield(tags) {
				return
			}
		}
	}
}

// queriesFromFile returns an iterator over the queries in a file.
func queriesFromFile(filename string) (iter.Seq[[]string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	queries, err := batch.ReadQueries(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	return func(yield func([]string) bool) {
		for _, q := range queries {
			if !yield(q.Tags) {
				return
			}
		}
	}, nil
}

func writeCatalog(path string, seed uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := catalog.WriteCSV(f, catalog.Synthetic(seed)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeQueries(w io.Writer, source iter.Seq[[]string]) error {
	bw := bufio.NewWriter(w)
	for tags := range source {
		if _, err := fmt.Fprintln(bw, strings.Join(tags, ", ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// parseUsers splits a comma separated user list, dropping blank names.
func parseUsers(list string) []string {
	var names []string
	for name := range strings.SplitSeq(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// seedHistory replays source as recommendation requests, rotating through
// the given users.
func seedHistory(ctx context.Context, r *medrank.Recommender, source iter.Seq[[]string], names []string) (int, error) {
	count := 0
	for tags := range source {
		_, err := r.Recommend(ctx, medrank.Request{
			Username: names[count%len(names)],
			Tags:     tags,
			TopN:     medrank.DefaultHistorySize,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if err := writeCatalog(*catalogFile, *seed); err != nil {
		slog.Error("writing catalog", "path", *catalogFile, "err", err)
		os.Exit(1)
	}
	slog.Info("catalog written", "path", *catalogFile, "medications", len(catalog.Medications))

	source := randomQueries(*seed, *queryCount)
	if *queryFile != "" {
		f, err := os.Create(*queryFile)
		if err != nil {
			slog.Error("creating query file", "path", *queryFile, "err", err)
			os.Exit(1)
		}
		err = writeQueries(f, source)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			slog.Error("writing queries", "path", *queryFile, "err", err)
			os.Exit(1)
		}
		slog.Info("queries written", "path", *queryFile, "count", *queryCount)

		// Replay exactly what was written
		if source, err = queriesFromFile(*queryFile); err != nil {
			slog.Error("reading queries", "path", *queryFile, "err", err)
			os.Exit(1)
		}
	}

	if *dbPath == "" {
		return
	}
	names := parseUsers(*users)
	if len(names) == 0 {
		slog.Error("no users to seed history for", "users", *users)
		os.Exit(1)
	}
	r, err := medrank.Open(*dbPath, catalog.NewCSVFile(*catalogFile), medrank.WithLogger(slog.Default()))
	if err != nil {
		slog.Error("opening database", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer r.Close()

	n, err := seedHistory(ctx, r, source, names)
	if err != nil {
		slog.Error("seeding history", "seeded", n, "err", err)
		r.Close()
		os.Exit(1)
	}
	slog.Info("history seeded", "requests", n, "users", len(names))
}
