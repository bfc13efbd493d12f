package trivia

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// Validation bounds
	MinOptions          = 2
	MaxOptions          = 26
	MinRoundsPerSession = 1
	MaxRoundsPerSession = 100
	MinRoundDuration    = 100 * time.Millisecond
	MaxRoundDuration    = 10 * time.Minute
	MinTickInterval     = time.Millisecond
	MaxCountdownTicks   = 10
)

// Question is an immutable trivia question.
type Question struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
}

// CorrectIndex returns the index of the correct option, or -1.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(q.Correct)) {
			return i
		}
	}
	return -1
}

// CorrectLetter returns the answer letter of the correct option.
func (q Question) CorrectLetter() string {
	idx := q.CorrectIndex()
	if idx < 0 {
		return ""
	}
	return string(rune('A' + idx))
}

// Duration is a time.Duration that reads and writes JSON as "30s" strings.
// Bare numbers are interpreted as milliseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Tier awards Points for a correct answer given within the duration.
type Tier struct {
	Within Duration `json:"within"`
	Points int      `json:"points"`
}

// Settings are the rules of a game room. They are loaded from rule presets.
type Settings struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	RoundDuration     Duration `json:"round_duration"`
	TickInterval      Duration `json:"tick_interval"`
	CountdownTicks    int      `json:"countdown_ticks"`
	CountdownInterval Duration `json:"countdown_interval"`
	RoundsPerSession  int      `json:"rounds_per_session"`
	Tiers             []Tier   `json:"tiers"`
	SlowPoints        int      `json:"slow_points"`
	Messages          struct {
		Welcome    string `json:"welcome"`
		LockedIn   string `json:"locked_in"`
		TurnSkip   string `json:"turn_skipped"`
		Countdown  string `json:"countdown"`
		NewSession string `json:"new_session"`
	} `json:"messages"`
}

// DefaultSettings returns the classic rules: 5 rounds of 30 seconds,
// 20 points within 5s, 10 within 15s, 5 otherwise.
func DefaultSettings() Settings {
	s := Settings{
		Name:              "classic",
		Description:       "Five 30 second rounds with fast answer bonuses",
		RoundDuration:     Duration(30 * time.Second),
		TickInterval:      Duration(time.Second),
		CountdownTicks:    3,
		CountdownInterval: Duration(time.Second),
		RoundsPerSession:  5,
		Tiers: []Tier{
			{Within: Duration(5 * time.Second), Points: 20},
			{Within: Duration(15 * time.Second), Points: 10},
		},
		SlowPoints: 5,
	}
	s.Messages.Welcome = "Welcome %s! You are in the Lobby."
	s.Messages.LockedIn = "%s has locked in an answer."
	s.Messages.TurnSkip = "You are away, your turn was skipped."
	s.Messages.Countdown = "Game starting in %d..."
	s.Messages.NewSession = "Game is ready for a new session"
	return s
}

// PointsFor returns the points a correct answer earns after elapsed.
func (s Settings) PointsFor(elapsed time.Duration) int {
	for _, tier := range s.Tiers {
		if elapsed <= tier.Within.Std() {
			return tier.Points
		}
	}
	return s.SlowPoints
}

// Remaining returns how much of the round is left after elapsed.
func (s Settings) Remaining(elapsed time.Duration) time.Duration {
	left := s.RoundDuration.Std() - elapsed
	if left < 0 {
		return 0
	}
	return left
}
