// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/medrank"
	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/config"
	"github.com/urfave/cli/v2"
)

const (
	defaultDatabasePath = "./medrank_db"
	configMetadataKey   = "config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "medrank",
		Usage: "Rank medications by symptom similarity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   defaultDatabasePath,
			},
			&cli.StringFlag{
				Name:  "index-name",
				Usage: "Name the index is stored under",
				Value: medrank.DefaultIndexName,
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "CSV catalog (drug_name,symptoms); the synthetic catalog is used when empty",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for the synthetic catalog",
				Value: 42,
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the index from the catalog and store it",
				Action: buildCommand,
			},
			{
				Name:      "query",
				Usage:     "Rank medications for the given symptoms",
				ArgsUsage: "<symptom> [symptom...]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of matches to show",
						Value:   5,
					},
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Record the request in this user's history",
					},
					&cli.StringFlag{
						Name:  "severity",
						Usage: "Symptom severity stored with the history entry",
					},
					&cli.StringFlag{
						Name:  "duration",
						Usage: "Symptom duration stored with the history entry",
					},
				},
			},
			{
				Name:   "batch",
				Usage:  "Rank every query in a file (one symptom list per line)",
				Action: batchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Query file",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of matches per query",
						Value:   5,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of queries ranked together",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N queries",
						Value: 100,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "Show or clear a user's recommendation history",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries (0 for all)",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete the user's history instead of showing it",
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write the current index to a file",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Destination file",
						Required: true,
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Replace the stored index with one read from a file",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Usage:    "Source file",
						Required: true,
					},
				},
			},
			{
				Name:   "info",
				Usage:  "Show stored indexes and database size",
				Action: infoCommand,
			},
		},
	}
}

// setup loads configuration and installs the logger.
// Flags given on the command line override values from the config file.
func setup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configMetadataKey] = cfg
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.ConfigOption
	if c.IsSet("log-level") {
		opts = append(opts, config.WithLogLevel(c.String("log-level")))
	}
	if c.IsSet("db") {
		opts = append(opts, config.WithDatabasePath(c.String("db")))
	}
	if c.IsSet("index-name") {
		opts = append(opts, config.WithIndexName(c.String("index-name")))
	}
	if c.IsSet("catalog") {
		opts = append(opts, config.WithCatalogPath(c.String("catalog")))
	}
	if c.IsSet("seed") {
		opts = append(opts, config.WithSyntheticSeed(c.Uint64("seed")))
	}

	var cfg *config.Config
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewConfig(opts...)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	return cfg, nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configMetadataKey].(*config.Config); ok {
		return cfg
	}
	return config.NewConfig(config.WithDatabasePath(defaultDatabasePath))
}

func catalogSource(cfg *config.Config) catalog.Source {
	if cfg.CatalogPath != "" {
		return catalog.NewCSVFile(cfg.CatalogPath)
	}
	return catalog.NewSynthetic(cfg.SyntheticSeed)
}

func openRecommender(c *cli.Context) (*medrank.Recommender, *config.Config, error) {
	cfg := configFrom(c)
	r, err := medrank.Open(cfg.DatabasePath, catalogSource(cfg),
		medrank.WithIndexName(cfg.IndexName),
		medrank.WithHistorySize(cfg.HistorySize),
		medrank.WithPoolSize(cfg.PoolSize),
		medrank.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return r, cfg, nil
}

func setupLogger(levelStr string) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
