package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wricardo/trivia-rooms/client"
	"github.com/wricardo/trivia-rooms/protocol"
)

// Bot plays sessions in one room through a client connection.
type Bot struct {
	client   *client.Client
	strategy Strategy
	room     string
	create   bool
	sessions int
	think    time.Duration
	rng      *rand.Rand
	logger   *slog.Logger
}

// Result summarizes what a bot did.
type Result struct {
	ID          string
	Sessions    int
	Answered    int
	FinalScores []int
}

// Best returns the highest final score the bot reached.
func (r Result) Best() int {
	best := 0
	for _, s := range r.FinalScores {
		best = max(best, s)
	}
	return best
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %d sessions, %d answers, final scores %v", r.ID, r.Sessions, r.Answered, r.FinalScores)
}

// Enter moves the bot from the Lobby into its room, creating it first when
// asked to. An existing room is joined instead.
func (b *Bot) Enter(ctx context.Context) error {
	if b.create {
		if err := b.client.CreateRoom(b.room); err != nil {
			return err
		}
		p, err := b.client.WaitFor(ctx, func(p protocol.Payload) bool {
			return client.HasMessage("You joined")(p) || client.HasMessage("already exists")(p)
		})
		if err != nil {
			return fmt.Errorf("creating room %s: %w", b.room, err)
		}
		if strings.Contains(p.Message, "You joined") {
			return nil
		}
	}

	if err := b.client.JoinRoom(b.room); err != nil {
		return err
	}
	p, err := b.client.WaitFor(ctx, func(p protocol.Payload) bool {
		return client.HasMessage("You joined")(p) || client.HasMessage("not found")(p)
	})
	if err != nil {
		return fmt.Errorf("joining room %s: %w", b.room, err)
	}
	if !strings.Contains(p.Message, "You joined") {
		return fmt.Errorf("joining room %s: %s", b.room, p.Message)
	}
	return nil
}

// Run marks the bot ready and plays until the requested number of sessions
// completed or ctx is done. The bot must already be in its room.
func (b *Bot) Run(ctx context.Context) (Result, error) {
	res := Result{ID: b.client.ID()}

	if err := b.client.MarkReady(); err != nil {
		return res, err
	}

	for {
		p, err := b.client.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, nil
			}
			return res, err
		}

		switch p.Type {
		case protocol.QuestionType:
			if p.Question == nil {
				continue
			}
			choice := b.strategy.Answer(*p.Question)
			if choice == "" {
				continue
			}
			if err := b.pause(ctx); err != nil {
				return res, nil
			}
			if err := b.client.SubmitAnswer(choice); err != nil {
				return res, err
			}
			res.Answered++
			b.logger.Debug("answered", "round", p.Question.Round, "letter", choice)

		case protocol.Points:
			if p.Points != nil && p.Points.Final && p.Points.ClientID == b.client.ID() {
				res.FinalScores = append(res.FinalScores, p.Points.Points)
			}

		case protocol.ResetPoints:
			res.Sessions++
			b.logger.Info("session complete", "sessions", res.Sessions, "best", res.Best())
			if b.sessions > 0 && res.Sessions >= b.sessions {
				return res, nil
			}
			if err := b.client.MarkReady(); err != nil {
				return res, err
			}

		case protocol.Notification:
			b.logger.Debug("notification", "message", p.Message)
		}
	}
}

// pause waits a random think time up to b.think.
func (b *Bot) pause(ctx context.Context) error {
	if b.think <= 0 {
		return nil
	}
	d := time.Duration(b.rng.Int64N(int64(b.think)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
