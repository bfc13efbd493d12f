package trivia

import (
	"math/rand/v2"
	"sort"
	"strings"
)

// Pool holds the questions not yet asked in a session. Draws are uniform
// and without replacement. A Pool is not safe for concurrent use; the game
// room guards it with its own lock.
type Pool struct {
	questions []Question
	rng       *rand.Rand
}

// NewPool creates a pool over a copy of questions. A nil rng uses the
// global source.
func NewPool(questions []Question, rng *rand.Rand) *Pool {
	p := &Pool{rng: rng}
	p.Refill(questions)
	return p
}

// Refill replaces the remaining questions.
func (p *Pool) Refill(questions []Question) {
	p.questions = append(p.questions[:0:0], questions...)
}

// Len returns the number of questions left.
func (p *Pool) Len() int {
	return len(p.questions)
}

// Draw removes and returns a random question. When categories is non-empty
// only matching questions are considered, unless none match, in which case
// any question may be drawn.
func (p *Pool) Draw(categories []string) (Question, bool) {
	if len(p.questions) == 0 {
		return Question{}, false
	}

	candidates := p.matching(categories)
	if len(candidates) == 0 {
		candidates = make([]int, len(p.questions))
		for i := range p.questions {
			candidates[i] = i
		}
	}

	idx := candidates[p.intN(len(candidates))]
	q := p.questions[idx]
	p.questions = append(p.questions[:idx], p.questions[idx+1:]...)
	return q, true
}

func (p *Pool) matching(categories []string) []int {
	if len(categories) == 0 {
		return nil
	}

	var idx []int
	for i, q := range p.questions {
		for _, c := range categories {
			if strings.EqualFold(q.Category, c) {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

func (p *Pool) intN(n int) int {
	if p.rng != nil {
		return p.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Categories returns the sorted distinct categories of questions.
func Categories(questions []Question) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range questions {
		key := strings.ToLower(q.Category)
		if q.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q.Category)
	}
	sort.Strings(out)
	return out
}
