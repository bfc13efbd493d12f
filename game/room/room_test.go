package room

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/trivia-rooms/game/questions"
	"github.com/wricardo/trivia-rooms/game/trivia"
	"github.com/wricardo/trivia-rooms/protocol"
)

type recorder struct {
	mu  sync.Mutex
	got []protocol.Payload
}

func (r *recorder) Send(p protocol.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
}

func (r *recorder) all() []protocol.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Payload(nil), r.got...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}

func (r *recorder) ofType(t protocol.PayloadType) []protocol.Payload {
	var out []protocol.Payload
	for _, p := range r.all() {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (r *recorder) notifications() []string {
	var out []string
	for _, p := range r.ofType(protocol.Notification) {
		out = append(out, p.Message)
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// step advances the clock and runs every tick that became due.
func step(r *GameRoom, c *fakeClock, d time.Duration) {
	c.advance(d)
	for {
		wait, ok := r.tick()
		if !ok || wait > 0 {
			return
		}
	}
}

func testQuestions() []trivia.Question {
	return []trivia.Question{
		{Text: "Largest planet?", Category: "Science", Options: []string{"Mars", "Jupiter", "Venus"}, Correct: "Jupiter"},
		{Text: "H2O is?", Category: "Science", Options: []string{"Water", "Salt", "Air"}, Correct: "Water"},
		{Text: "Speed of light unit?", Category: "Science", Options: []string{"m/s", "kg", "K"}, Correct: "m/s"},
		{Text: "Red planet?", Category: "Science", Options: []string{"Venus", "Mars", "Earth"}, Correct: "Mars"},
		{Text: "2+2?", Category: "Math", Options: []string{"3", "4", "5"}, Correct: "4"},
		{Text: "3*3?", Category: "Math", Options: []string{"6", "9", "12"}, Correct: "9"},
	}
}

func newTestRoom(t *testing.T, qs []trivia.Question, mutate func(*trivia.Settings)) (*GameRoom, *fakeClock) {
	t.Helper()
	settings := trivia.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	clock := newFakeClock()
	r := NewGameRoom("Trivia1", settings, questions.Static(qs), nil,
		WithClock(clock.now), WithRand(rand.New(rand.NewPCG(1, 2))), withoutTimer())
	t.Cleanup(r.Close)
	return r, clock
}

func join(t *testing.T, r Room, id string) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewSession(id, rec)
	require.NoError(t, r.Join(s, false))
	return s, rec
}

func letters(r *GameRoom) (correct, wrong string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.current.CorrectIndex()
	return string(rune('A' + idx)), string(rune('A' + (idx+1)%len(r.current.Options)))
}

func score(r *GameRoom, s *Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return s.score
}

func roundIndex(r *GameRoom) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roundIndex
}

// startRound readies every session and runs the countdown to round 1.
func startRound(t *testing.T, r *GameRoom, c *fakeClock, sessions ...*Session) {
	t.Helper()
	for _, s := range sessions {
		require.NoError(t, r.Ready(s, nil))
	}
	for r.State() == Countdown {
		step(r, c, r.settings.CountdownInterval.Std())
	}
	require.Equal(t, RoundActive, r.State())
}

func assertSubsets(t *testing.T, r *GameRoom) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.ready {
		assert.True(t, r.isMemberLocked(s), "ready member %s not in room", s.id)
	}
	for s := range r.answered {
		assert.True(t, r.isMemberLocked(s), "answered member %s not in room", s.id)
	}
	if r.current != nil {
		assert.Equal(t, RoundActive, r.state)
	}
}

func TestLobby(t *testing.T) {
	lobby := NewLobby("Lobby", "Welcome %s! You are in the Lobby.", nil)
	s, rec := join(t, lobby, "alice")

	assert.Equal(t, []string{"Welcome alice! You are in the Lobby."}, rec.notifications())
	assert.Equal(t, 1, lobby.Len())
	assert.ErrorIs(t, lobby.Ready(s, nil), ErrNotGameRoom)
	assert.ErrorIs(t, lobby.Answer(s, "A"), ErrNotGameRoom)
	assert.ErrorIs(t, lobby.SelectCategories(s, []string{"x"}), ErrNotGameRoom)

	lobby.SetAway(s, true)
	info := lobby.Info()
	require.Len(t, info.Members, 1)
	assert.True(t, info.Members[0].Away)

	lobby.Leave(s)
	lobby.Leave(s)
	assert.Equal(t, 0, lobby.Len())
}

func TestJoinMovesLobbyIdleToReadyCheck(t *testing.T) {
	r, _ := newTestRoom(t, testQuestions(), nil)
	assert.Equal(t, LobbyIdle, r.State())

	a, _ := join(t, r, "A")
	assert.Equal(t, ReadyCheck, r.State())

	// Joining twice does not duplicate membership
	require.NoError(t, r.Join(a, false))
	assert.Len(t, r.Info().Members, 1)

	r.Leave(a)
	assert.Equal(t, LobbyIdle, r.State())
}

func TestReadinessTransitionIsExact(t *testing.T) {
	r, _ := newTestRoom(t, testQuestions(), nil)
	a, recA := join(t, r, "A")
	b, _ := join(t, r, "B")
	c, _ := join(t, r, "C")

	require.NoError(t, r.Ready(a, nil))
	assert.ErrorIs(t, r.Ready(a, nil), ErrAlreadyReady)
	assert.Equal(t, ReadyCheck, r.State())

	require.NoError(t, r.Ready(b, nil))
	assert.Equal(t, ReadyCheck, r.State())

	require.NoError(t, r.Ready(c, nil))
	assert.Equal(t, Countdown, r.State())
	assert.Contains(t, recA.notifications(), "Game starting in 3...")

	assert.ErrorIs(t, r.Ready(a, nil), ErrNotAcceptingReady)
}

func TestLeavingUnreadyMemberStartsCountdown(t *testing.T) {
	r, _ := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, _ := join(t, r, "B")

	require.NoError(t, r.Ready(a, nil))
	r.Leave(b)
	assert.Equal(t, Countdown, r.State())
}

func TestCountdownThenStartGame(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, recA := join(t, r, "A")
	b, recB := join(t, r, "B")

	require.NoError(t, r.Ready(a, nil))
	require.NoError(t, r.Ready(b, nil))

	step(r, clock, 500*time.Millisecond)
	assert.Empty(t, recA.ofType(protocol.StartGame))

	step(r, clock, 500*time.Millisecond)
	step(r, clock, time.Second)
	assert.Empty(t, recA.ofType(protocol.StartGame))

	step(r, clock, time.Second)
	for _, rec := range []*recorder{recA, recB} {
		var countdown []string
		for _, msg := range rec.notifications() {
			if strings.HasPrefix(msg, "Game starting") {
				countdown = append(countdown, msg)
			}
		}
		assert.Equal(t, []string{"Game starting in 3...", "Game starting in 2...", "Game starting in 1..."}, countdown)
		assert.Len(t, rec.ofType(protocol.StartGame), 1)
		require.Len(t, rec.ofType(protocol.QuestionType), 1)
	}

	q := recA.ofType(protocol.QuestionType)[0].Question
	assert.Equal(t, 1, q.Round)
	assert.Equal(t, 5, q.Rounds)
	assert.Len(t, q.Options, 3)
	assert.Equal(t, RoundActive, r.State())
	assertSubsets(t, r)
	assert.False(t, r.Info().Members[0].Ready, "ready is cleared when the session starts")
}

func TestScoringTierBoundaries(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{2 * time.Second, 20},
		{5000 * time.Millisecond, 20},
		{5001 * time.Millisecond, 10},
		{15000 * time.Millisecond, 10},
		{15001 * time.Millisecond, 5},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			r, clock := newTestRoom(t, testQuestions(), nil)
			a, _ := join(t, r, "A")
			startRound(t, r, clock, a)

			clock.advance(tt.elapsed)
			correct, _ := letters(r)
			require.NoError(t, r.Answer(a, correct))
			assert.Equal(t, tt.want, score(r, a))
		})
	}
}

func TestAnswerRejections(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, _ := join(t, r, "B")
	watcher := NewSession("S", &recorder{})
	require.NoError(t, r.Join(watcher, true))
	outsider := NewSession("X", &recorder{})

	assert.ErrorIs(t, r.Answer(a, "A"), ErrNoActiveQuestion)

	startRound(t, r, clock, a, b)

	assert.ErrorIs(t, r.Answer(watcher, "A"), ErrSpectator)
	assert.ErrorIs(t, r.Ready(watcher, nil), ErrSpectator)
	assert.ErrorIs(t, r.Answer(outsider, "A"), ErrNotMember)

	assert.ErrorIs(t, r.Answer(a, "Z"), trivia.ErrInvalidAnswer)
	assert.ErrorIs(t, r.Answer(a, "AB"), trivia.ErrInvalidAnswer)
	assert.False(t, r.Info().Members[0].Answered)

	correct, _ := letters(r)
	require.NoError(t, r.Answer(a, correct))
	assert.Equal(t, 20, score(r, a))

	clock.advance(time.Second)
	assert.ErrorIs(t, r.Answer(a, correct), ErrAlreadyAnswered)
	assert.Equal(t, 20, score(r, a))
	assertSubsets(t, r)
}

func TestLockedInNotificationOmitsAnswer(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, recB := join(t, r, "B")
	startRound(t, r, clock, a, b)

	recB.reset()
	_, wrong := letters(r)
	require.NoError(t, r.Answer(a, wrong))
	assert.Equal(t, []string{"A has locked in an answer."}, recB.notifications())
}

func TestRoundEndsExactlyOnce(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, recA := join(t, r, "A")
	b, _ := join(t, r, "B")
	startRound(t, r, clock, a, b)

	clock.advance(2 * time.Second)
	correct, wrong := letters(r)
	require.NoError(t, r.Answer(a, correct))
	require.NoError(t, r.Answer(b, wrong))
	assert.Equal(t, 1, roundIndex(r))

	// A tick scheduled for the previous round must not end the new one
	_, ok := r.tick()
	assert.True(t, ok)
	assert.Equal(t, 1, roundIndex(r))
	assert.Len(t, recA.ofType(protocol.Points), 2)

	points := recA.ofType(protocol.Points)
	assert.Equal(t, "A", points[0].Points.ClientID)
	assert.Equal(t, 20, points[0].Points.Points)
	assert.Equal(t, "B", points[1].Points.ClientID)
	assert.Equal(t, 0, points[1].Points.Points)
	assert.Contains(t, recA.notifications()[len(recA.notifications())-1], "The correct answer was")
}

func TestRoundTimerExpiry(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), func(s *trivia.Settings) {
		s.RoundDuration = trivia.Duration(5 * time.Second)
	})
	a, recA := join(t, r, "A")
	startRound(t, r, clock, a)
	recA.reset()

	for i := 0; i < 4; i++ {
		step(r, clock, time.Second)
	}
	assert.Equal(t, 0, roundIndex(r))

	var remaining []int64
	for _, p := range recA.ofType(protocol.Time) {
		remaining = append(remaining, p.Time.RemainingMS)
	}
	assert.Equal(t, []int64{4000, 3000, 2000, 1000}, remaining)

	step(r, clock, time.Second)
	assert.Equal(t, 1, roundIndex(r))
	assert.Equal(t, RoundActive, r.State())
	assert.Len(t, recA.ofType(protocol.Points), 1)
	assert.Len(t, recA.ofType(protocol.QuestionType), 1, "next round question")
}

func TestLateJoinSnapshot(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	c, _ := join(t, r, "C")
	startRound(t, r, clock, a, c)

	clock.advance(2 * time.Second)
	correct, wrong := letters(r)
	require.NoError(t, r.Answer(a, correct))
	step(r, clock, 8*time.Second)

	b, recB := join(t, r, "B")
	require.Len(t, recB.ofType(protocol.QuestionType), 1)

	times := recB.ofType(protocol.Time)
	require.Len(t, times, 1)
	assert.Equal(t, int64(20000), times[0].Time.RemainingMS)
	assert.Greater(t, times[0].Time.RemainingMS, int64(0))
	assert.LessOrEqual(t, times[0].Time.RemainingMS, int64(30000))

	points := recB.ofType(protocol.Points)
	require.Len(t, points, 3)
	assert.Equal(t, "A", points[0].Points.ClientID)
	assert.Equal(t, 20, points[0].Points.Points)
	assert.Equal(t, "C", points[1].Points.ClientID)
	assert.Equal(t, "B", points[2].Points.ClientID)

	// The late joiner plays the current round
	require.NoError(t, r.Answer(b, wrong))
	assert.Equal(t, 0, roundIndex(r))
	require.NoError(t, r.Answer(c, wrong))
	assert.Equal(t, 1, roundIndex(r))
}

func TestDisconnectMidRound(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, recB := join(t, r, "B")
	startRound(t, r, clock, a, b)

	r.Leave(a)
	assertSubsets(t, r)
	assert.Equal(t, 0, roundIndex(r))

	clock.advance(time.Second)
	correct, _ := letters(r)
	require.NoError(t, r.Answer(b, correct))
	assert.Equal(t, 1, roundIndex(r))
	assert.Contains(t, recB.notifications(), "A left the room")
}

func TestLeaveAfterOthersAnsweredEndsRound(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, _ := join(t, r, "B")
	startRound(t, r, clock, a, b)

	correct, _ := letters(r)
	require.NoError(t, r.Answer(b, correct))
	assert.Equal(t, 0, roundIndex(r))

	r.Leave(a)
	assert.Equal(t, 1, roundIndex(r))
}

func TestFullSessionResetsScores(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, recA := join(t, r, "A")
	b, recB := join(t, r, "B")
	startRound(t, r, clock, a, b)

	for round := 0; round < 5; round++ {
		require.Equal(t, RoundActive, r.State())
		step(r, clock, time.Second)
		correct, wrong := letters(r)
		require.NoError(t, r.Answer(a, correct))
		require.NoError(t, r.Answer(b, wrong))
	}

	assert.Equal(t, ReadyCheck, r.State())
	assert.Equal(t, 0, roundIndex(r))
	assert.Equal(t, 0, score(r, a))
	assert.Equal(t, 0, score(r, b))

	for _, rec := range []*recorder{recA, recB} {
		var final []protocol.Payload
		for _, p := range rec.ofType(protocol.Points) {
			if p.Points.Final {
				final = append(final, p)
			}
		}
		require.Len(t, final, 2)
		assert.Equal(t, 100, final[0].Points.Points)
		assert.Equal(t, 0, final[1].Points.Points)
		assert.Len(t, rec.ofType(protocol.ResetPoints), 1)
		assert.Len(t, rec.ofType(protocol.QuestionType), 5)
		assert.Equal(t, "Game is ready for a new session", rec.notifications()[len(rec.notifications())-1])
	}

	// A new session can start
	require.NoError(t, r.Ready(a, nil))
	require.NoError(t, r.Ready(b, nil))
	assert.Equal(t, Countdown, r.State())
}

func TestEmptyPoolEndsSessionEarly(t *testing.T) {
	r, _ := newTestRoom(t, nil, func(s *trivia.Settings) { s.CountdownTicks = 0 })
	a, recA := join(t, r, "A")

	require.NoError(t, r.Ready(a, nil))

	assert.Equal(t, ReadyCheck, r.State())
	assert.Contains(t, recA.notifications(), "No questions available, ending the session")
	assert.Len(t, recA.ofType(protocol.ResetPoints), 1)
	assert.Empty(t, recA.ofType(protocol.QuestionType))
}

func TestPoolReloadsWhenExhausted(t *testing.T) {
	qs := testQuestions()[:2]
	r, clock := newTestRoom(t, qs, func(s *trivia.Settings) { s.RoundsPerSession = 4 })
	a, recA := join(t, r, "A")
	startRound(t, r, clock, a)

	for i := 0; i < 4; i++ {
		correct, _ := letters(r)
		require.NoError(t, r.Answer(a, correct))
	}
	assert.Len(t, recA.ofType(protocol.QuestionType), 4)
	assert.Equal(t, ReadyCheck, r.State())
}

func TestAwayMemberSkipsQuestion(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	b, recB := join(t, r, "B")
	r.SetAway(b, true)

	startRound(t, r, clock, a, b)
	assert.Empty(t, recB.ofType(protocol.QuestionType))
	assert.Contains(t, recB.notifications(), "You are away, your turn was skipped.")

	clock.advance(3 * time.Second)
	r.SetAway(b, false)
	require.Len(t, recB.ofType(protocol.QuestionType), 1)
	times := recB.ofType(protocol.Time)
	assert.Equal(t, int64(27000), times[len(times)-1].Time.RemainingMS)
}

func TestSpectatorIsNotScored(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	watcher := NewSession("S", &recorder{})
	rec := watcher.out.(*recorder)
	require.NoError(t, r.Join(watcher, true))

	// The spectator does not block readiness
	startRound(t, r, clock, a)
	assert.Len(t, rec.ofType(protocol.QuestionType), 1)

	info := r.Info()
	assert.Len(t, info.Members, 1)
	assert.Equal(t, []string{"S"}, info.Spectators)
	assert.Equal(t, 2, r.Len())

	correct, _ := letters(r)
	require.NoError(t, r.Answer(a, correct))
	assert.Equal(t, 1, roundIndex(r), "the spectator is not waited for")

	r.Leave(watcher)
	assert.Equal(t, 1, r.Len())
}

func TestCategorySelectionDrivesDraws(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), func(s *trivia.Settings) { s.RoundsPerSession = 2 })
	a, recA := join(t, r, "A")

	require.NoError(t, r.SelectCategories(a, []string{"math", " "}))
	selected := recA.ofType(protocol.SelectedCategories)
	require.NotEmpty(t, selected)
	assert.Equal(t, []string{"math"}, selected[len(selected)-1].Categories)

	startRound(t, r, clock, a)
	for i := 0; i < 2; i++ {
		qs := recA.ofType(protocol.QuestionType)
		assert.Equal(t, "Math", qs[len(qs)-1].Question.Category)
		correct, _ := letters(r)
		require.NoError(t, r.Answer(a, correct))
	}
	assert.Equal(t, []string{"math"}, r.Info().Categories)
}

func TestInfoHidesCorrectAnswer(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), nil)
	a, _ := join(t, r, "A")
	startRound(t, r, clock, a)

	info := r.Info()
	assert.Equal(t, "ROUND_ACTIVE", info.State)
	require.NotNil(t, info.Question)
	assert.Equal(t, int64(30000), info.RemainingMS)
	assert.Equal(t, 1, info.Round)
	assert.Equal(t, "Trivia1", info.Name)
	assert.True(t, info.Game)
	assert.Equal(t, "classic", info.Preset)
}

func TestInfoRoundResetsBetweenSessions(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), func(s *trivia.Settings) { s.RoundsPerSession = 1 })
	a, _ := join(t, r, "A")
	assert.Equal(t, 0, r.Info().Round)

	startRound(t, r, clock, a)
	assert.Equal(t, 1, r.Info().Round)

	correct, _ := letters(r)
	require.NoError(t, r.Answer(a, correct))

	info := r.Info()
	assert.Equal(t, "READY_CHECK", info.State)
	assert.Equal(t, 0, info.Round)
}

func TestSubsetInvariantUnderChurn(t *testing.T) {
	r, clock := newTestRoom(t, testQuestions(), func(s *trivia.Settings) { s.CountdownTicks = 0 })
	rng := rand.New(rand.NewPCG(7, 9))

	sessions := make([]*Session, 5)
	for i := range sessions {
		sessions[i] = NewSession(string(rune('A'+i)), &recorder{})
	}

	for i := 0; i < 500; i++ {
		s := sessions[rng.IntN(len(sessions))]
		switch rng.IntN(5) {
		case 0:
			_ = r.Join(s, false)
		case 1:
			r.Leave(s)
		case 2:
			_ = r.Ready(s, nil)
		case 3:
			err := r.Answer(s, string(rune('A'+rng.IntN(3))))
			if err != nil {
				assert.True(t, isExpectedAnswerError(err), "unexpected error: %v", err)
			}
		case 4:
			step(r, clock, time.Second)
		}
		assertSubsets(t, r)
	}
}

func isExpectedAnswerError(err error) bool {
	for _, target := range []error{ErrNotMember, ErrNoActiveQuestion, ErrAlreadyAnswered, trivia.ErrInvalidAnswer} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestTimerDrivesRoundsInRealTime(t *testing.T) {
	settings := trivia.DefaultSettings()
	settings.RoundDuration = trivia.Duration(150 * time.Millisecond)
	settings.TickInterval = trivia.Duration(50 * time.Millisecond)
	settings.CountdownInterval = trivia.Duration(20 * time.Millisecond)
	settings.RoundsPerSession = 2

	r := NewGameRoom("Realtime", settings, questions.Static(testQuestions()), nil)
	defer r.Close()

	a, rec := join(t, r, "A")
	require.NoError(t, r.Ready(a, nil))

	require.Eventually(t, func() bool {
		return len(rec.ofType(protocol.ResetPoints)) == 1
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, ReadyCheck, r.State())
	assert.Len(t, rec.ofType(protocol.QuestionType), 2)
	assert.Len(t, rec.ofType(protocol.StartGame), 1)
	assert.GreaterOrEqual(t, len(rec.ofType(protocol.Time)), 4)
}

func TestCloseStopsTimer(t *testing.T) {
	r := NewGameRoom("Closing", trivia.DefaultSettings(), questions.Static(testQuestions()), nil)
	a, _ := join(t, r, "A")
	require.NoError(t, r.Ready(a, nil))

	r.Close()
	r.Close()
	assert.ErrorIs(t, r.Join(NewSession("B", nil), false), ErrRoomClosed)
}
