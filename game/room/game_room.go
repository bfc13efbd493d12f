package room

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wricardo/trivia-rooms/game/questions"
	"github.com/wricardo/trivia-rooms/game/trivia"
	"github.com/wricardo/trivia-rooms/protocol"
)

// State is the round state of a game room.
type State int

const (
	LobbyIdle State = iota
	ReadyCheck
	Countdown
	RoundActive
	RoundGrading
	SessionComplete
)

func (s State) String() string {
	switch s {
	case LobbyIdle:
		return "LOBBY_IDLE"
	case ReadyCheck:
		return "READY_CHECK"
	case Countdown:
		return "COUNTDOWN"
	case RoundActive:
		return "ROUND_ACTIVE"
	case RoundGrading:
		return "ROUND_GRADING"
	case SessionComplete:
		return "SESSION_COMPLETE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a GameRoom.
type Option func(*GameRoom)

// WithClock replaces time.Now for scoring and remaining time.
func WithClock(now func() time.Time) Option {
	return func(r *GameRoom) { r.now = now }
}

// WithRand makes question draws deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(r *GameRoom) { r.rng = rng }
}

// WithPreset records the preset id the room was created from.
func WithPreset(id string) Option {
	return func(r *GameRoom) { r.preset = id }
}

// withoutTimer disables the timer goroutine so tests can drive ticks.
func withoutTimer() Option {
	return func(r *GameRoom) { r.manual = true }
}

// GameRoom runs timed trivia sessions for its members. One mutex guards all
// fields; the timer goroutine takes the same lock on every tick.
type GameRoom struct {
	base

	preset   string
	settings trivia.Settings
	source   questions.Source
	pool     *trivia.Pool
	rng      *rand.Rand
	now      func() time.Time

	state      State
	spectators []*Session
	ready      map[*Session]bool
	answered   map[*Session]bool
	categories map[*Session][]string

	current       *trivia.Question
	startedAt     time.Time
	roundIndex    int
	countdownLeft int
	closed        bool

	// timer state, guarded by mu
	armed    bool
	nextTick time.Time
	rearm    chan struct{}
	manual   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewGameRoom creates a game room and starts its timer goroutine. The
// question pool is loaded from source immediately; a failing source leaves
// the pool empty.
func NewGameRoom(name string, settings trivia.Settings, source questions.Source, logger *slog.Logger, opts ...Option) *GameRoom {
	r := &GameRoom{
		base:       newBase(name, logger),
		settings:   settings.WithDefaults(),
		source:     source,
		now:        time.Now,
		ready:      make(map[*Session]bool),
		answered:   make(map[*Session]bool),
		categories: make(map[*Session][]string),
		rearm:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.preset == "" {
		r.preset = r.settings.Name
	}

	r.pool = trivia.NewPool(nil, r.rng)
	r.reloadLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	if r.manual {
		close(r.done)
	} else {
		go r.run(ctx)
	}

	return r
}

// Settings returns the rules of the room.
func (r *GameRoom) Settings() trivia.Settings {
	return r.settings
}

// State returns the current round state.
func (r *GameRoom) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *GameRoom) Join(s *Session, spectator bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if r.isMemberLocked(s) || r.indexLocked(r.spectators, s) >= 0 {
		return nil
	}

	s.score = 0
	if spectator {
		r.spectators = append(r.spectators, s)
		s.send(protocol.NewNotification("You are spectating %s", r.name))
		r.broadcastLocked(protocol.NewNotification("%s is spectating", s.id))
	} else {
		r.members = append(r.members, s)
		s.send(protocol.NewNotification("You joined %s", r.name))
		r.broadcastLocked(protocol.NewNotification("%s joined the room", s.id))
	}
	r.logger.Info("client joined", "client_id", s.id, "spectator", spectator, "state", r.state)

	switch r.state {
	case LobbyIdle:
		if !spectator {
			r.state = ReadyCheck
		}
	case RoundActive:
		r.sendSnapshotLocked(s)
	}
	if cats := r.selectedCategoriesLocked(); len(cats) > 0 {
		s.send(protocol.NewSelectedCategories(cats))
	}

	return nil
}

func (r *GameRoom) Leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexLocked(r.spectators, s); i >= 0 {
		r.spectators = append(r.spectators[:i], r.spectators[i+1:]...)
		r.logger.Info("spectator left", "client_id", s.id)
		return
	}
	if !r.removeMemberLocked(s) {
		return
	}

	delete(r.ready, s)
	delete(r.answered, s)
	delete(r.categories, s)
	s.score = 0
	r.logger.Info("client left", "client_id", s.id, "members", len(r.members), "state", r.state)

	if len(r.members) == 0 {
		r.resetLocked()
		return
	}

	r.broadcastLocked(protocol.NewNotification("%s left the room", s.id))
	switch r.state {
	case ReadyCheck:
		r.checkAllReadyLocked()
	case RoundActive:
		r.checkRoundCompleteLocked()
	}
}

func (r *GameRoom) Ready(s *Session, categories []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.playerLocked(s); err != nil {
		return err
	}
	if r.state != ReadyCheck {
		return ErrNotAcceptingReady
	}
	if r.ready[s] {
		return ErrAlreadyReady
	}

	r.ready[s] = true
	if len(categories) > 0 {
		r.setCategoriesLocked(s, categories)
	}
	r.broadcastLocked(protocol.NewNotification("%s is ready (%d/%d)", s.id, len(r.ready), len(r.members)))
	r.checkAllReadyLocked()
	return nil
}

func (r *GameRoom) SelectCategories(s *Session, categories []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.playerLocked(s); err != nil {
		return err
	}
	r.setCategoriesLocked(s, categories)
	return nil
}

func (r *GameRoom) Answer(s *Session, letter string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.playerLocked(s); err != nil {
		return err
	}
	if r.state != RoundActive || r.current == nil {
		return ErrNoActiveQuestion
	}
	if r.answered[s] {
		return ErrAlreadyAnswered
	}

	idx, err := trivia.ParseAnswer(letter, len(r.current.Options))
	if err != nil {
		return err
	}

	elapsed := r.now().Sub(r.startedAt)
	if r.settings.Remaining(elapsed) == 0 {
		r.endRoundLocked()
		return ErrNoActiveQuestion
	}

	r.answered[s] = true
	if idx == r.current.CorrectIndex() {
		s.score += r.settings.PointsFor(elapsed)
	}
	r.logger.Debug("answer accepted", "client_id", s.id, "elapsed", elapsed, "score", s.score)

	r.broadcastLocked(protocol.NewNotification(r.settings.Messages.LockedIn, s.id))
	r.checkRoundCompleteLocked()
	return nil
}

func (r *GameRoom) SetAway(s *Session, away bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.away == away {
		return
	}
	s.away = away
	if !r.isMemberLocked(s) {
		return
	}

	if away {
		r.broadcastLocked(protocol.NewNotification("%s is away", s.id))
		return
	}
	r.broadcastLocked(protocol.NewNotification("%s is back", s.id))
	if r.state == RoundActive && r.current != nil && !r.answered[s] {
		s.send(r.questionPayloadLocked())
		s.send(protocol.NewTime(r.remainingLocked().Milliseconds()))
	}
}

func (r *GameRoom) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) + len(r.spectators)
}

func (r *GameRoom) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := Info{
		Name:       r.name,
		Game:       true,
		Preset:     r.preset,
		State:      r.state.String(),
		Members:    make([]MemberInfo, 0, len(r.members)),
		Rounds:     r.settings.RoundsPerSession,
		Categories: r.selectedCategoriesLocked(),
	}
	for _, m := range r.members {
		info.Members = append(info.Members, MemberInfo{
			ID:       m.id,
			Score:    m.score,
			Ready:    r.ready[m],
			Answered: r.answered[m],
			Away:     m.away,
		})
	}
	for _, sp := range r.spectators {
		info.Spectators = append(info.Spectators, sp.id)
	}
	// Round is 1-based while a round runs and 0 between sessions.
	if r.state == RoundActive || r.state == RoundGrading {
		info.Round = r.roundIndex + 1
	}
	if r.state == RoundActive && r.current != nil {
		info.Question = r.questionPayloadLocked().Question
		info.RemainingMS = r.remainingLocked().Milliseconds()
	}
	return info
}

// Close stops the timer goroutine. Members stay attached but no further
// rounds run.
func (r *GameRoom) Close() {
	r.mu.Lock()
	r.closed = true
	r.armed = false
	r.mu.Unlock()

	r.cancel()
	<-r.done
}

func (r *GameRoom) playerLocked(s *Session) error {
	if r.indexLocked(r.spectators, s) >= 0 {
		return ErrSpectator
	}
	if !r.isMemberLocked(s) {
		return ErrNotMember
	}
	return nil
}

func (r *GameRoom) broadcastLocked(p protocol.Payload) {
	r.broadcastMembersLocked(p)
	for _, sp := range r.spectators {
		sp.send(p)
	}
}

func (r *GameRoom) setCategoriesLocked(s *Session, categories []string) {
	var clean []string
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		delete(r.categories, s)
	} else {
		r.categories[s] = clean
	}
	r.broadcastLocked(protocol.NewSelectedCategories(r.selectedCategoriesLocked()))
}

// selectedCategoriesLocked returns the union of member selections in join
// order.
func (r *GameRoom) selectedCategoriesLocked() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range r.members {
		for _, c := range r.categories[m] {
			key := strings.ToLower(c)
			if !seen[key] {
				seen[key] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func (r *GameRoom) reloadLocked() {
	if r.source == nil {
		r.pool.Refill(nil)
		return
	}
	qs, err := r.source.Load()
	if err != nil {
		r.logger.Error("failed to load questions", "error", err)
	}
	r.pool.Refill(qs)
}

func (r *GameRoom) remainingLocked() time.Duration {
	return r.settings.Remaining(r.now().Sub(r.startedAt))
}

func (r *GameRoom) questionPayloadLocked() protocol.Payload {
	return protocol.NewQuestion("Current Question", protocol.QuestionBody{
		Text:     r.current.Text,
		Category: r.current.Category,
		Options:  append([]string(nil), r.current.Options...),
		Round:    r.roundIndex + 1,
		Rounds:   r.settings.RoundsPerSession,
	})
}

func (r *GameRoom) broadcastLedgerLocked(final bool) {
	msg := "Points Update"
	if final {
		msg = "Final Score"
	}
	for _, m := range r.members {
		r.broadcastLocked(protocol.NewPoints(msg, m.id, m.score, final))
	}
}

// sendSnapshotLocked brings a late joiner up to date with the active round.
func (r *GameRoom) sendSnapshotLocked(s *Session) {
	if r.current == nil {
		return
	}
	if s.away {
		s.send(protocol.NewNotification("%s", r.settings.Messages.TurnSkip))
	} else {
		s.send(r.questionPayloadLocked())
	}
	s.send(protocol.NewTime(r.remainingLocked().Milliseconds()))
	for _, m := range r.members {
		s.send(protocol.NewPoints("Points Update", m.id, m.score, false))
	}
}

func (r *GameRoom) checkAllReadyLocked() {
	if r.state == ReadyCheck && len(r.members) > 0 && len(r.ready) == len(r.members) {
		r.startCountdownLocked()
	}
}

func (r *GameRoom) checkRoundCompleteLocked() {
	if r.state == RoundActive && len(r.members) > 0 && len(r.answered) == len(r.members) {
		r.endRoundLocked()
	}
}

func (r *GameRoom) startCountdownLocked() {
	r.logger.Info("all members ready", "members", len(r.members))
	if r.settings.CountdownTicks == 0 {
		r.startSessionLocked()
		return
	}

	r.state = Countdown
	r.countdownLeft = r.settings.CountdownTicks
	r.countdownTickLocked()
}

// countdownTickLocked emits the next countdown notification, or starts the
// session when the countdown is exhausted.
func (r *GameRoom) countdownTickLocked() {
	if r.countdownLeft == 0 {
		r.startSessionLocked()
		return
	}
	r.broadcastLocked(protocol.NewNotification(r.settings.Messages.Countdown, r.countdownLeft))
	r.countdownLeft--
	r.armLocked(r.settings.CountdownInterval.Std())
}

func (r *GameRoom) startSessionLocked() {
	r.disarmLocked()
	r.ready = make(map[*Session]bool)
	r.roundIndex = 0
	r.broadcastLocked(protocol.NewStartGame())
	r.logger.Info("session started", "members", len(r.members), "rounds", r.settings.RoundsPerSession)
	r.startRoundLocked()
}

func (r *GameRoom) startRoundLocked() {
	cats := r.selectedCategoriesLocked()
	q, ok := r.pool.Draw(cats)
	if !ok {
		r.reloadLocked()
		q, ok = r.pool.Draw(cats)
	}
	if !ok {
		r.logger.Warn("question pool exhausted, ending session early", "round", r.roundIndex+1)
		r.broadcastLocked(protocol.NewNotification("No questions available, ending the session"))
		r.completeSessionLocked()
		return
	}

	r.state = RoundActive
	r.current = &q
	r.startedAt = r.now()
	r.answered = make(map[*Session]bool)

	question := r.questionPayloadLocked()
	for _, m := range r.members {
		if m.away {
			m.send(protocol.NewNotification("%s", r.settings.Messages.TurnSkip))
			continue
		}
		m.send(question)
	}
	for _, sp := range r.spectators {
		sp.send(question)
	}
	r.broadcastLocked(protocol.NewTime(r.settings.RoundDuration.Std().Milliseconds()))

	r.logger.Debug("round started", "round", r.roundIndex+1, "category", q.Category)
	r.armLocked(r.settings.TickInterval.Std())
}

// roundTickLocked broadcasts the remaining time and ends the round when it
// reaches zero.
func (r *GameRoom) roundTickLocked() {
	remaining := r.remainingLocked()
	r.broadcastLocked(protocol.NewTime(remaining.Milliseconds()))
	if remaining == 0 {
		r.endRoundLocked()
		return
	}

	interval := r.settings.TickInterval.Std()
	next := r.nextTick.Add(interval)
	if now := r.now(); !next.After(now) {
		next = now.Add(interval)
	}
	if deadline := r.startedAt.Add(r.settings.RoundDuration.Std()); next.After(deadline) {
		next = deadline
	}
	r.rescheduleLocked(next)
}

func (r *GameRoom) endRoundLocked() {
	r.disarmLocked()
	r.state = RoundGrading

	r.broadcastLedgerLocked(false)
	if letter := r.current.CorrectLetter(); letter != "" {
		r.broadcastLocked(protocol.NewNotification("The correct answer was %s: %s",
			letter, r.current.Options[r.current.CorrectIndex()]))
	}

	r.answered = make(map[*Session]bool)
	r.current = nil
	r.roundIndex++
	r.logger.Debug("round ended", "round", r.roundIndex)

	if r.roundIndex < r.settings.RoundsPerSession {
		r.startRoundLocked()
		return
	}
	r.completeSessionLocked()
}

func (r *GameRoom) completeSessionLocked() {
	r.disarmLocked()
	r.state = SessionComplete

	r.broadcastLedgerLocked(true)
	for _, m := range r.members {
		m.score = 0
	}
	r.broadcastLocked(protocol.NewResetPoints())
	r.logger.Info("session complete", "rounds", r.roundIndex)

	r.roundIndex = 0
	r.current = nil
	r.ready = make(map[*Session]bool)
	r.answered = make(map[*Session]bool)
	r.reloadLocked()

	if len(r.members) == 0 {
		r.state = LobbyIdle
		return
	}
	r.state = ReadyCheck
	r.broadcastLocked(protocol.NewNotification("%s", r.settings.Messages.NewSession))
}

// resetLocked returns an empty room to its idle state.
func (r *GameRoom) resetLocked() {
	r.disarmLocked()
	if r.state != LobbyIdle && r.state != ReadyCheck {
		r.logger.Info("room emptied, session abandoned", "state", r.state)
	}
	r.state = LobbyIdle
	r.current = nil
	r.roundIndex = 0
	r.countdownLeft = 0
	r.ready = make(map[*Session]bool)
	r.answered = make(map[*Session]bool)
	r.categories = make(map[*Session][]string)
	if r.pool.Len() == 0 {
		r.reloadLocked()
	}
}

// CloseIfEmpty closes the room when nobody is in it. It reports whether the
// room was closed; a closed room rejects joins.
func (r *GameRoom) CloseIfEmpty() bool {
	r.mu.Lock()
	if len(r.members)+len(r.spectators) > 0 {
		r.mu.Unlock()
		return false
	}
	r.closed = true
	r.armed = false
	r.mu.Unlock()

	r.cancel()
	<-r.done
	return true
}
