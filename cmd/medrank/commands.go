package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/medrank"
	"github.com/poiesic/medrank/batch"
	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/storage/file"
	"github.com/urfave/cli/v2"
)

func buildCommand(c *cli.Context) error {
	ctx := context.Background()
	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	idx, err := r.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	p := newPrinter(c.App.Writer)
	p.success(fmt.Sprintf("Index %q built: %d medications, %d symptoms", cfg.IndexName, idx.Len(), idx.VocabularySize()))
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()
	tags := catalog.ParseTags(strings.Join(c.Args().Slice(), ","))
	if len(tags) == 0 {
		return errors.New("at least one symptom is required")
	}

	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	topN := cfg.TopN
	if c.IsSet("top") {
		topN = c.Int("top")
	}

	metadata := map[string]string{}
	for _, key := range []string{"severity", "duration"} {
		if v := c.String(key); v != "" {
			metadata[key] = v
		}
	}

	matches, err := r.Recommend(ctx, medrank.Request{
		Username: c.String("user"),
		Tags:     tags,
		TopN:     topN,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	p := newPrinter(c.App.Writer)
	p.heading(fmt.Sprintf("Top %d for: %s", topN, strings.Join(tags, ", ")))
	p.matches(matches)
	return nil
}

func batchCommand(c *cli.Context) error {
	ctx := context.Background()

	f, err := os.Open(c.String("input"))
	if err != nil {
		return err
	}
	queries, err := batch.ReadQueries(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	batchConfig := &batch.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		TopN:           cfg.TopN,
	}
	if c.IsSet("top") {
		batchConfig.TopN = c.Int("top")
	}

	p := newPrinter(c.App.Writer)
	runner := batch.NewRunner(r, batchConfig, c.App.ErrWriter)
	return runner.Run(ctx, queries, func(res batch.Result) error {
		p.heading(fmt.Sprintf("Line %d: %s", res.Query.Line, strings.Join(res.Query.Tags, ", ")))
		p.matches(res.Matches)
		return nil
	})
}

func historyCommand(c *cli.Context) error {
	ctx := context.Background()
	user := c.String("user")

	r, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	p := newPrinter(c.App.Writer)
	if c.Bool("clear") {
		if err := r.ClearHistory(ctx, user); err != nil {
			return err
		}
		p.success(fmt.Sprintf("History cleared for %s", user))
		return nil
	}

	entries, err := r.History(ctx, user, c.Int("limit"))
	if err != nil {
		return err
	}
	p.history(user, entries)
	return nil
}

func exportCommand(c *cli.Context) error {
	ctx := context.Background()
	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	idx, err := r.Index(ctx)
	if err != nil {
		return err
	}

	store, err := file.NewStore(file.WithLockTimeout(cfg.LockTimeout))
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := store.Export(ctx, out, idx); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	newPrinter(c.App.Writer).success(fmt.Sprintf("Exported %d medications to %s", idx.Len(), out))
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()
	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	store, err := file.NewStore(file.WithLockTimeout(cfg.LockTimeout))
	if err != nil {
		return err
	}
	in := c.String("in")
	idx, err := store.Import(ctx, in)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if err := r.Swap(ctx, idx); err != nil {
		return err
	}

	newPrinter(c.App.Writer).success(fmt.Sprintf("Imported %d medications from %s as %q", idx.Len(), in, cfg.IndexName))
	return nil
}

func infoCommand(c *cli.Context) error {
	ctx := context.Background()
	r, cfg, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer r.Close()

	snapshots, err := r.Snapshots(ctx)
	if err != nil {
		return err
	}
	lsm, vlog := r.StorageSize()

	p := newPrinter(c.App.Writer)
	p.heading(fmt.Sprintf("Database: %s", cfg.DatabasePath))
	p.snapshots(snapshots, cfg.IndexName)
	p.note(fmt.Sprintf("Storage: %d bytes (lsm %d, vlog %d)", lsm+vlog, lsm, vlog))
	return nil
}
