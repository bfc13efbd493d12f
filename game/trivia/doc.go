// Package trivia provides the pure game rules of the trivia server.
//
// The trivia package implements:
//   - Questions and their validation
//   - Rule presets (Settings) with round timing and scoring tiers
//   - Answer letter parsing
//   - A question pool with uniform draws without replacement
//
// Scoring:
//
// A correct answer earns the points of the first tier whose duration is not
// exceeded by the response time, measured from the moment the question was
// broadcast. The classic preset awards 20 points within 5 seconds, 10 within
// 15 seconds and 5 afterwards. Boundaries are inclusive: an answer at exactly
// 5000ms still earns 20.
//
// Usage:
//
//	settings := trivia.DefaultSettings()
//	pool := trivia.NewPool(questions, nil)
//
//	q, ok := pool.Draw([]string{"science"})
//	idx, err := trivia.ParseAnswer("b", len(q.Options))
//	if err == nil && idx == q.CorrectIndex() {
//		points := settings.PointsFor(elapsed)
//	}
//
// Nothing in this package is safe for concurrent use on its own; callers
// serialize access.
package trivia
