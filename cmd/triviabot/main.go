// Command triviabot connects scripted players to a trivia-rooms server.
//
// Each bot joins the same room, marks itself ready and answers questions
// with the chosen strategy until the requested number of sessions finished.
// It is handy for smoke and soak testing a running server:
//
//	triviabot -addr localhost:12345 -room Trivia1 -bots 4 -strategy random -sessions 3
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/trivia-rooms/client"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "triviabot",
		Usage: "play trivia sessions with scripted players",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   "localhost:12345",
				Usage:   "server address: host:port for TCP or ws://host:port/ws for WebSocket",
				Sources: cli.EnvVars("TRIVIA_ADDR"),
			},
			&cli.StringFlag{Name: "room", Value: "Trivia1", Usage: "room the bots play in"},
			&cli.BoolFlag{Name: "create", Value: true, Usage: "create the room when it does not exist"},
			&cli.IntFlag{Name: "bots", Value: 2, Usage: "number of bots"},
			&cli.StringFlag{Name: "prefix", Value: "bot", Usage: "client id prefix, bots are named <prefix>-1, <prefix>-2, ..."},
			&cli.StringFlag{Name: "strategy", Value: "random", Usage: "answer strategy: first, random, longest or idle"},
			&cli.IntFlag{Name: "sessions", Value: 1, Usage: "sessions to play before leaving (0 plays until interrupted)"},
			&cli.DurationFlag{Name: "think", Value: 2 * time.Second, Usage: "maximum random delay before answering"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed (0 picks one from the clock)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	n := int(cmd.Int("bots"))
	if n < 1 {
		return fmt.Errorf("bots must be at least 1")
	}

	seed := cmd.Uint64("seed")
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	cfg := swarmConfig{
		addr:     cmd.String("addr"),
		room:     cmd.String("room"),
		create:   cmd.Bool("create"),
		bots:     n,
		prefix:   cmd.String("prefix"),
		strategy: cmd.String("strategy"),
		sessions: int(cmd.Int("sessions")),
		think:    cmd.Duration("think"),
		seed:     seed,
	}

	results, err := runSwarm(ctx, cfg, logger)
	for _, r := range results {
		fmt.Println(r)
	}
	return err
}

type swarmConfig struct {
	addr     string
	room     string
	create   bool
	bots     int
	prefix   string
	strategy string
	sessions int
	think    time.Duration
	seed     uint64
}

// runSwarm dials every bot and plays until all of them are done. The first
// bot creates the room. Nobody marks ready before every bot is in the room,
// otherwise the first one would start a session on its own.
func runSwarm(ctx context.Context, cfg swarmConfig, logger *slog.Logger) ([]Result, error) {
	var (
		mu      sync.Mutex
		results []Result
		joined  sync.WaitGroup
	)

	created := make(chan struct{})
	allJoined := make(chan struct{})
	joined.Add(cfg.bots)
	go func() {
		joined.Wait()
		close(allJoined)
	}()

	g, ctx := errgroup.WithContext(ctx)
	for i := range cfg.bots {
		id := fmt.Sprintf("%s-%d", cfg.prefix, i+1)
		rng := rand.New(rand.NewPCG(cfg.seed, uint64(i)))

		strategy, err := ParseStrategy(cfg.strategy, rng)
		if err != nil {
			return nil, err
		}

		g.Go(func() error {
			arrived := sync.OnceFunc(joined.Done)
			defer arrived()

			if i > 0 {
				select {
				case <-created:
				case <-ctx.Done():
					return nil
				}
			}

			c, err := client.Dial(ctx, cfg.addr, id, logger.With("bot", id))
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			defer c.Close()

			if err := c.Connect(); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if _, err := c.WaitFor(ctx, client.HasMessage("Welcome")); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}

			bot := &Bot{
				client:   c,
				strategy: strategy,
				room:     cfg.room,
				create:   cfg.create && i == 0,
				sessions: cfg.sessions,
				think:    cfg.think,
				rng:      rng,
				logger:   logger.With("bot", id),
			}
			if err := bot.Enter(ctx); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if i == 0 {
				close(created)
			}

			arrived()
			select {
			case <-allJoined:
			case <-ctx.Done():
				return nil
			}

			res, err := bot.Run(ctx)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			return nil
		})
	}

	err := g.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, err
}
