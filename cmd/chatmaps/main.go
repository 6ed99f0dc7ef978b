package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/chatmaps/internal/version"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "chatmaps:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "chatmaps",
		Usage:   "Semantic place recommendations backed by a vector index",
		Version: version.String(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP recommendation API",
				Action: serveCommand,
			},
			{
				Name:      "fetch",
				Usage:     "Fetch places for one or more locations and index the new ones",
				ArgsUsage: "<location>...",
				Action:    fetchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed and overwrite places that are already indexed",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Print the places closest to a free-text query",
				ArgsUsage: "<text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "num-results",
						Aliases: []string{"n"},
						Usage:   "Number of results to return",
						Value:   3,
					},
				},
			},
		},
	}
}
