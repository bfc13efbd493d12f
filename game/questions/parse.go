package questions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/trivia-rooms/game/trivia"
)

// Issue describes a question entry that was skipped.
type Issue struct {
	File string
	Line int // 1-based; 0 for JSON entries
	Err  error
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", i.File, i.Line, i.Err)
	}
	return fmt.Sprintf("%s: %v", i.File, i.Err)
}

// ParseText reads the line format
//
//	question text;category;option1,option2,option3;correct option
//
// Blank lines and lines starting with '#' are ignored. Malformed lines are
// reported as issues and skipped.
func ParseText(r io.Reader, file string) ([]trivia.Question, []Issue, error) {
	var (
		out    []trivia.Question
		issues []Issue
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ";", 4)
		if len(parts) != 4 {
			issues = append(issues, Issue{File: file, Line: lineNo, Err: fmt.Errorf("expected 4 ';' separated fields, got %d", len(parts))})
			continue
		}

		options := strings.Split(parts[2], ",")
		for i := range options {
			options[i] = strings.TrimSpace(options[i])
		}

		q := trivia.Question{
			Text:     strings.TrimSpace(parts[0]),
			Category: strings.TrimSpace(parts[1]),
			Options:  options,
			Correct:  strings.TrimSpace(parts[3]),
		}
		if err := trivia.ValidateQuestion(q); err != nil {
			issues = append(issues, Issue{File: file, Line: lineNo, Err: err})
			continue
		}
		out = append(out, q)
	}
	if err := scanner.Err(); err != nil {
		return out, issues, fmt.Errorf("failed to read %s: %w", file, err)
	}

	return out, issues, nil
}

// ParseJSON reads a JSON array of questions, skipping invalid entries.
func ParseJSON(data []byte, file string) ([]trivia.Question, []Issue, error) {
	var raw []trivia.Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	var (
		out    []trivia.Question
		issues []Issue
	)
	for i, q := range raw {
		if err := trivia.ValidateQuestion(q); err != nil {
			issues = append(issues, Issue{File: file, Err: fmt.Errorf("entry %d: %w", i+1, err)})
			continue
		}
		out = append(out, q)
	}

	return out, issues, nil
}
