package trivia

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{Text: "Largest planet?", Category: "Science", Options: []string{"Mars", "Jupiter", "Venus"}, Correct: "Jupiter"},
		{Text: "2+2?", Category: "Math", Options: []string{"3", "4"}, Correct: "4"},
		{Text: "Capital of France?", Category: "Geography", Options: []string{"Paris", "Rome"}, Correct: "Paris"},
		{Text: "H2O is?", Category: "science", Options: []string{"Water", "Salt"}, Correct: "water"},
	}
}

func TestPointsForTierBoundaries(t *testing.T) {
	s := DefaultSettings()

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 20},
		{2 * time.Second, 20},
		{5000 * time.Millisecond, 20},
		{5001 * time.Millisecond, 10},
		{15000 * time.Millisecond, 10},
		{15001 * time.Millisecond, 5},
		{29 * time.Second, 5},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, s.PointsFor(tt.elapsed))
		})
	}
}

func TestRemaining(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 30*time.Second, s.Remaining(0))
	assert.Equal(t, 20*time.Second, s.Remaining(10*time.Second))
	assert.Equal(t, time.Duration(0), s.Remaining(31*time.Second))
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		letter  string
		options int
		want    int
		wantErr bool
	}{
		{"A", 4, 0, false},
		{"d", 4, 3, false},
		{" b ", 2, 1, false},
		{"E", 4, -1, true},
		{"AB", 4, -1, true},
		{"", 4, -1, true},
		{"1", 4, -1, true},
		{"é", 4, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.letter, func(t *testing.T) {
			got, err := ParseAnswer(tt.letter, tt.options)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAnswer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionCorrectIndex(t *testing.T) {
	q := sampleQuestions()[3]
	assert.Equal(t, 0, q.CorrectIndex(), "match is case-insensitive")
	assert.Equal(t, "A", q.CorrectLetter())

	q.Correct = "Oil"
	assert.Equal(t, -1, q.CorrectIndex())
	assert.Equal(t, "", q.CorrectLetter())
}

func TestValidateQuestion(t *testing.T) {
	valid := sampleQuestions()[0]
	require.NoError(t, ValidateQuestion(valid))

	tests := []struct {
		name   string
		mutate func(q *Question)
	}{
		{"empty text", func(q *Question) { q.Text = " " }},
		{"one option", func(q *Question) { q.Options = []string{"Mars"}; q.Correct = "Mars" }},
		{"blank option", func(q *Question) { q.Options = []string{"Mars", ""} }},
		{"correct not an option", func(q *Question) { q.Correct = "Pluto" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			tt.mutate(&q)
			assert.Error(t, ValidateQuestion(q))
		})
	}
}

func TestValidateSettings(t *testing.T) {
	d := DefaultSettings()
	require.NoError(t, ValidateSettings(&d))

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"missing name", func(s *Settings) { s.Name = "" }},
		{"round too short", func(s *Settings) { s.RoundDuration = Duration(time.Millisecond) }},
		{"tick longer than round", func(s *Settings) { s.TickInterval = Duration(time.Hour) }},
		{"zero rounds", func(s *Settings) { s.RoundsPerSession = 0 }},
		{"countdown without interval", func(s *Settings) { s.CountdownInterval = 0 }},
		{"unordered tiers", func(s *Settings) { s.Tiers[0], s.Tiers[1] = s.Tiers[1], s.Tiers[0] }},
		{"slow tier pays more", func(s *Settings) { s.Tiers[1].Points = 50 }},
		{"slow points exceed last tier", func(s *Settings) { s.SlowPoints = 11 }},
		{"locked in without name verb", func(s *Settings) { s.Messages.LockedIn = "someone answered" }},
		{"countdown without seconds verb", func(s *Settings) { s.Messages.Countdown = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.Error(t, ValidateSettings(&s))
		})
	}
}

func TestSettingsJSON(t *testing.T) {
	raw := `{
		"name": "blitz",
		"description": "quick",
		"round_duration": "10s",
		"tick_interval": 500,
		"countdown_ticks": 3,
		"countdown_interval": "1s",
		"rounds_per_session": 3,
		"tiers": [{"within": "2s", "points": 30}],
		"slow_points": 10
	}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, 10*time.Second, s.RoundDuration.Std())
	assert.Equal(t, 500*time.Millisecond, s.TickInterval.Std())
	assert.Equal(t, 30, s.PointsFor(2*time.Second))
	assert.Equal(t, 10, s.PointsFor(3*time.Second))

	s = s.WithDefaults()
	require.NoError(t, ValidateSettings(&s))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"round_duration":"10s"`)

	var bad Settings
	assert.Error(t, json.Unmarshal([]byte(`{"round_duration":"soon"}`), &bad))
}

func TestPoolDrawWithoutReplacement(t *testing.T) {
	qs := sampleQuestions()
	pool := NewPool(qs, rand.New(rand.NewPCG(1, 2)))

	seen := make(map[string]bool)
	for range qs {
		q, ok := pool.Draw(nil)
		require.True(t, ok)
		assert.False(t, seen[q.Text], "question drawn twice: %s", q.Text)
		seen[q.Text] = true
	}

	_, ok := pool.Draw(nil)
	assert.False(t, ok)
	assert.Equal(t, 0, pool.Len())

	// Refill does not alias the caller's slice
	pool.Refill(qs)
	pool.Draw(nil)
	assert.Len(t, qs, 4)
	assert.Equal(t, 3, pool.Len())
}

func TestPoolDrawByCategory(t *testing.T) {
	pool := NewPool(sampleQuestions(), rand.New(rand.NewPCG(3, 4)))

	for i := 0; i < 2; i++ {
		q, ok := pool.Draw([]string{"SCIENCE"})
		require.True(t, ok)
		assert.Equal(t, "science", normalize(q.Category))
	}

	// No science left: falls back to any question
	q, ok := pool.Draw([]string{"science"})
	require.True(t, ok)
	assert.NotEqual(t, "science", normalize(q.Category))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"Geography", "Math", "Science"}, Categories(sampleQuestions()))
	assert.Empty(t, Categories(nil))
}

func normalize(s string) string {
	if s == "Science" {
		return "science"
	}
	return s
}
