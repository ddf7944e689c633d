// Command season-sim generates fake seasons and plays them against a running
// outwit server.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/urfave/cli/v2"

	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/simulator"
	"github.com/okian/outwit/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "season-sim",
		Usage:     "simulate a fantasy season against an outwit server",
		Writer:    out,
		ErrWriter: out,
		Before: func(*cli.Context) error {
			return logger.Init()
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "write a fake season file for OUTWIT_SEED_FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "episodes", Value: 13},
					&cli.IntFlag{Name: "players", Value: 50},
					&cli.Uint64Flag{Name: "seed", Value: 1},
					&cli.StringFlag{Name: "out", Usage: "output file; stdout when empty"},
				},
				Action: generate,
			},
			{
				Name:  "run",
				Usage: "play a season against a server seeded with the same file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Value: "http://localhost:9080"},
					&cli.StringFlag{Name: "season", Usage: "season YAML the server was seeded with", Required: true},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "scenario seed"},
					&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * 2},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
					&cli.DurationFlag{Name: "wait", Value: time.Minute, Usage: "max wait per finalize job"},
					&cli.BoolFlag{Name: "verbose"},
				},
				Action: run,
			},
		},
	}
}

func generate(c *cli.Context) error {
	if c.Int("episodes") < 1 || c.Int("players") < 1 {
		return fmt.Errorf("episodes and players must be positive")
	}
	seed := simulator.GenerateRoster(gofakeit.New(c.Uint64("seed")), simulator.Roster{
		Episodes: c.Int("episodes"),
		Players:  c.Int("players"),
	})

	w := c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return repository.WriteSeed(w, seed)
}

func run(c *cli.Context) error {
	season, err := repository.LoadSeedFile(c.String("season"))
	if err != nil {
		return err
	}
	cfg := &simulator.Config{
		BaseURL: c.String("url"),
		Seed:    c.Uint64("seed"),
		Workers: c.Int("workers"),
		Timeout: c.Duration("timeout"),
		Wait:    c.Duration("wait"),
		Verbose: c.Bool("verbose"),
		Logger:  logger.Named("simulator"),
	}
	stats, err := simulator.Run(c.Context, cfg, season)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "ok: %d picks, %d episodes, %d outcomes, %d leaderboard rows in %s\n",
		stats.PicksSubmitted, stats.EpisodesFinalized, stats.ProphecyResolved, stats.LeaderboardEntries, stats.Duration)
	return nil
}
