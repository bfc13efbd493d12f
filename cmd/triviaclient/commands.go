package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/trivia-rooms/protocol"
)

const helpText = `Commands: /create <room>, /join <room>, /spectate <room>, /ready [categories],
/categories <categories>, /answer <letter> (or just the letter), /away on|off, /quit`

// commander is the part of client.Client the REPL drives.
type commander interface {
	CreateRoom(name string) error
	JoinRoom(name string) error
	JoinRoomAsSpectator(name string) error
	MarkReady(categories ...string) error
	SelectCategories(categories ...string) error
	SubmitAnswer(letter string) error
	SetAwayStatus(away bool) error
}

var errUsage = errors.New("usage")

// execute runs one input line. It reports whether the user asked to quit.
func execute(c commander, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	// A single letter on its own is an answer.
	if len(fields) == 1 && len([]rune(fields[0])) == 1 {
		return false, c.SubmitAnswer(fields[0])
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(helpText)
		return false, nil
	case "/create":
		if rest == "" {
			return false, fmt.Errorf("%w: /create <room>", errUsage)
		}
		return false, c.CreateRoom(rest)
	case "/join":
		if rest == "" {
			return false, fmt.Errorf("%w: /join <room>", errUsage)
		}
		return false, c.JoinRoom(rest)
	case "/spectate":
		if rest == "" {
			return false, fmt.Errorf("%w: /spectate <room>", errUsage)
		}
		return false, c.JoinRoomAsSpectator(rest)
	case "/ready":
		return false, c.MarkReady(splitCategories(rest)...)
	case "/categories":
		return false, c.SelectCategories(splitCategories(rest)...)
	case "/answer":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: /answer <letter>", errUsage)
		}
		return false, c.SubmitAnswer(args[0])
	case "/away":
		switch rest {
		case "on", "true", "yes":
			return false, c.SetAwayStatus(true)
		case "off", "false", "no":
			return false, c.SetAwayStatus(false)
		}
		return false, fmt.Errorf("%w: /away on|off", errUsage)
	default:
		return false, fmt.Errorf("unknown command %q, try /help", fields[0])
	}
}

// splitCategories accepts "Science, Math" as well as "Science Math".
func splitCategories(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, " ") && !strings.Contains(s, ",") {
			out = append(out, strings.Fields(part)...)
			continue
		}
		out = append(out, part)
	}
	return out
}

// render formats a server payload for the terminal.
func render(p protocol.Payload) string {
	switch {
	case p.Type == protocol.QuestionType && p.Question != nil:
		var b strings.Builder
		q := p.Question
		if q.Rounds > 0 {
			fmt.Fprintf(&b, "\n[Round %d/%d] ", q.Round, q.Rounds)
		} else {
			b.WriteString("\n")
		}
		if q.Category != "" {
			fmt.Fprintf(&b, "(%s) ", q.Category)
		}
		b.WriteString(q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "\n  %c) %s", 'A'+i, opt)
		}
		return b.String()
	case p.Type == protocol.Time && p.Time != nil:
		return fmt.Sprintf("⏱  %s left", (time.Duration(p.Time.RemainingMS) * time.Millisecond).Round(time.Second))
	case p.Type == protocol.Points && p.Points != nil:
		label := "Score"
		if p.Points.Final {
			label = "Final score"
		}
		return fmt.Sprintf("%s: %s = %d", label, p.Points.ClientID, p.Points.Points)
	case p.Type == protocol.StartGame:
		return "=== Game started ==="
	case p.Type == protocol.ResetPoints:
		return "Scores reset"
	case p.Type == protocol.SelectedCategories:
		if len(p.Categories) == 0 {
			return "Categories: any"
		}
		return "Categories: " + strings.Join(p.Categories, ", ")
	default:
		return p.Message
	}
}
