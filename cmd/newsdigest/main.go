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
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsdigest",
		Usage: "Collect, summarize and publish a daily AI news digest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides DATABASE_PATH)",
			},
			&cli.StringFlag{
				Name:  "sources",
				Usage: "YAML file listing feeds and newsletter senders (overrides SOURCES_FILE)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the pipeline once",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "backfill",
						Usage: "Days of history to collect (0-30)",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the published payload as JSON",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API, optionally running the pipeline on a schedule",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to listen on (overrides PORT)",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron expression for scheduled runs (overrides SCHEDULE)",
					},
					&cli.IntFlag{
						Name:  "backfill",
						Usage: "Days of history collected by scheduled runs",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "How long to wait for in-flight requests on shutdown",
						Value: 10 * time.Second,
					},
				},
			},
			{
				Name:   "items",
				Usage:  "List recently published items",
				Action: itemsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Only items tagged with this topic",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Only items of this article type (news, tutorial)",
					},
				},
			},
			{
				Name:   "runs",
				Usage:  "List recent pipeline runs",
				Action: runsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 10,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored items by meaning",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 5,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute the embeddings of all stored items",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "only-missing",
						Usage: "Skip items that already have an embedding",
					},
				},
			},
		},
	}
}
