// Command triviaclient is a terminal client for the trivia session server.
//
// It connects over TCP (host:port) or WebSocket (ws://host/ws), sends
// CONNECT with the chosen identifier and then reads commands from stdin:
//
//	/create <room>        create a game room and move into it
//	/join <room>          join a room
//	/spectate <room>      watch a room without playing
//	/ready [categories]   mark yourself ready, optionally with categories
//	/categories <cats>    change your preferred categories
//	/answer <letter>      answer the current question (a bare letter works too)
//	/away on|off          toggle away status
//	/quit                 disconnect
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/trivia-rooms/client"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "triviaclient",
		Usage: "play trivia against a trivia-rooms server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   "localhost:12345",
				Usage:   "server address: host:port for TCP or ws://host:port/ws for WebSocket",
				Sources: cli.EnvVars("TRIVIA_ADDR"),
			},
			&cli.StringFlag{
				Name:     "id",
				Aliases:  []string{"i"},
				Usage:    "client identifier shown to other players",
				Sources:  cli.EnvVars("TRIVIA_CLIENT_ID"),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "room",
				Usage: "room to join after connecting",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
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
	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	c, err := client.Dial(ctx, cmd.String("addr"), cmd.String("id"), logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Connect(); err != nil {
		return err
	}
	if room := cmd.String("room"); room != "" {
		if err := c.JoinRoom(room); err != nil {
			return err
		}
	}

	lost := make(chan struct{})
	go func() {
		defer close(lost)
		for p := range c.Events() {
			fmt.Fprintln(os.Stdout, render(p))
		}
	}()

	fmt.Println(helpText)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lost:
			if err := c.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("connection lost: %w", err)
			}
			fmt.Println("Disconnected by server")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := execute(c, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if quit {
				return nil
			}
		}
	}
}
