package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/wricardo/trivia-rooms/protocol"
)

// Strategy picks an answer letter for a question. An empty letter means the
// bot sits the round out.
type Strategy interface {
	Answer(q protocol.QuestionBody) string
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(q protocol.QuestionBody) string

func (f StrategyFunc) Answer(q protocol.QuestionBody) string { return f(q) }

func letter(i int) string {
	return string(rune('A' + i))
}

// First always answers A.
var First = StrategyFunc(func(q protocol.QuestionBody) string {
	if len(q.Options) == 0 {
		return ""
	}
	return "A"
})

// Random answers a uniformly random option.
func Random(r *rand.Rand) Strategy {
	return StrategyFunc(func(q protocol.QuestionBody) string {
		if len(q.Options) == 0 {
			return ""
		}
		return letter(r.IntN(len(q.Options)))
	})
}

// Longest answers the option with the most characters, ties going to the
// earliest one.
var Longest = StrategyFunc(func(q protocol.QuestionBody) string {
	best := -1
	for i, opt := range q.Options {
		if best < 0 || len(opt) > len(q.Options[best]) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return letter(best)
})

// Idle never answers, so its rounds end on the timer.
var Idle = StrategyFunc(func(protocol.QuestionBody) string { return "" })

// ParseStrategy resolves a strategy by name.
func ParseStrategy(name string, r *rand.Rand) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first":
		return First, nil
	case "random", "":
		return Random(r), nil
	case "longest":
		return Longest, nil
	case "idle":
		return Idle, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (first, random, longest, idle)", name)
	}
}
