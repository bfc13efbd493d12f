package trivia

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrInvalidAnswer = errors.New("invalid answer")

// ValidateSettings validates a rule preset for correctness and playability.
func ValidateSettings(s *Settings) error {
	if s.Name == "" {
		return fmt.Errorf("settings validation: name is required")
	}

	if s.RoundDuration.Std() < MinRoundDuration || s.RoundDuration.Std() > MaxRoundDuration {
		return fmt.Errorf("settings validation: round_duration must be between %s and %s, got %s",
			MinRoundDuration, MaxRoundDuration, s.RoundDuration.Std())
	}
	if s.TickInterval.Std() < MinTickInterval || s.TickInterval.Std() > s.RoundDuration.Std() {
		return fmt.Errorf("settings validation: tick_interval must be between %s and round_duration, got %s",
			MinTickInterval, s.TickInterval.Std())
	}
	if s.CountdownTicks < 0 || s.CountdownTicks > MaxCountdownTicks {
		return fmt.Errorf("settings validation: countdown_ticks must be between 0 and %d, got %d",
			MaxCountdownTicks, s.CountdownTicks)
	}
	if s.CountdownTicks > 0 && s.CountdownInterval.Std() < MinTickInterval {
		return fmt.Errorf("settings validation: countdown_interval is required when countdown_ticks > 0")
	}
	if s.RoundsPerSession < MinRoundsPerSession || s.RoundsPerSession > MaxRoundsPerSession {
		return fmt.Errorf("settings validation: rounds_per_session must be between %d and %d, got %d",
			MinRoundsPerSession, MaxRoundsPerSession, s.RoundsPerSession)
	}

	// Tiers must be strictly increasing in time and never reward slower answers more
	if !sort.SliceIsSorted(s.Tiers, func(i, j int) bool { return s.Tiers[i].Within < s.Tiers[j].Within }) {
		return fmt.Errorf("settings validation: tiers must be ordered by increasing duration")
	}
	prev := -1
	for i := len(s.Tiers) - 1; i >= 0; i-- {
		tier := s.Tiers[i]
		if tier.Within <= 0 {
			return fmt.Errorf("settings validation: tier %d must have a positive duration", i+1)
		}
		if tier.Points < 0 {
			return fmt.Errorf("settings validation: tier %d must not award negative points", i+1)
		}
		if tier.Points < prev {
			return fmt.Errorf("settings validation: tier %d awards fewer points than a slower tier", i+1)
		}
		prev = tier.Points
	}
	if s.SlowPoints < 0 {
		return fmt.Errorf("settings validation: slow_points must not be negative")
	}
	if len(s.Tiers) > 0 && s.SlowPoints > s.Tiers[len(s.Tiers)-1].Points {
		return fmt.Errorf("settings validation: slow_points must not exceed the slowest tier")
	}

	// Validate message templates
	if s.Messages.LockedIn != "" && !strings.Contains(s.Messages.LockedIn, "%s") {
		return fmt.Errorf("settings validation: messages.locked_in must contain %%s for the player name")
	}
	if s.Messages.Welcome != "" && !strings.Contains(s.Messages.Welcome, "%s") {
		return fmt.Errorf("settings validation: messages.welcome must contain %%s for the player name")
	}
	if s.Messages.Countdown != "" && !strings.Contains(s.Messages.Countdown, "%d") {
		return fmt.Errorf("settings validation: messages.countdown must contain %%d for the seconds left")
	}

	return nil
}

// WithDefaults fills empty message templates from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Messages.Welcome == "" {
		s.Messages.Welcome = d.Messages.Welcome
	}
	if s.Messages.LockedIn == "" {
		s.Messages.LockedIn = d.Messages.LockedIn
	}
	if s.Messages.TurnSkip == "" {
		s.Messages.TurnSkip = d.Messages.TurnSkip
	}
	if s.Messages.Countdown == "" {
		s.Messages.Countdown = d.Messages.Countdown
	}
	if s.Messages.NewSession == "" {
		s.Messages.NewSession = d.Messages.NewSession
	}
	return s
}

// ValidateQuestion checks that a question is answerable.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question validation: text is required")
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("question validation: must have between %d and %d options, got %d",
			MinOptions, MaxOptions, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("question validation: option %c is empty", 'A'+i)
		}
	}
	if q.CorrectIndex() < 0 {
		return fmt.Errorf("question validation: correct answer %q is not one of the options", q.Correct)
	}
	return nil
}

// ParseAnswer maps a single answer letter (case-insensitive) to an option
// index.
func ParseAnswer(letter string, options int) (int, error) {
	letter = strings.TrimSpace(letter)
	if utf8.RuneCountInString(letter) != 1 {
		return -1, fmt.Errorf("%w: %q is not a single letter", ErrInvalidAnswer, letter)
	}

	r := []rune(strings.ToUpper(letter))[0]
	if r < 'A' || r >= 'A'+rune(options) {
		return -1, fmt.Errorf("%w: %q is not between A and %c", ErrInvalidAnswer, letter, 'A'+options-1)
	}

	return int(r - 'A'), nil
}
