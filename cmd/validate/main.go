// Command validate checks question banks and rule presets before they are
// deployed. For question banks it reports every malformed entry with its
// line number and prints per-category counts; for presets it runs the same
// validation the server applies when loading them.
//
// It exits with a non-zero status if any file has errors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/trivia-rooms/game/questions"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

var (
	questionsDir = flag.String("questions-dir", "questions", "Directory containing question banks (*.txt, *.json)")
	configDir    = flag.String("config-dir", "configs", "Directory containing rule presets (*.json)")
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateBank parses a question bank and reports malformed entries,
// duplicate questions and per-category counts.
func validateBank(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var (
		qs     []trivia.Question
		issues []questions.Issue
	)
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		qs, issues, err = questions.ParseJSON(data, result.File)
	} else {
		qs, issues, err = questions.ParseText(strings.NewReader(string(data)), result.File)
	}
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, issue := range issues {
		result.Valid = false
		result.Errors = append(result.Errors, issue.String())
	}

	seen := make(map[string]bool)
	for _, q := range qs {
		key := strings.ToLower(q.Text)
		if seen[key] {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate question: %q", q.Text))
		}
		seen[key] = true
	}

	if len(qs) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Bank contains no valid questions")
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Questions: %d", len(qs)))
		counts := categoryCounts(qs)
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %d", name, counts[name]))
		}
	}

	return result
}

func categoryCounts(qs []trivia.Question) map[string]int {
	counts := make(map[string]int)
	for _, q := range qs {
		name := q.Category
		if name == "" {
			name = "(uncategorized)"
		}
		counts[name]++
	}
	return counts
}

// validatePreset loads a rule preset and validates it the way the server
// does, including default message templates.
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var settings trivia.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	settings = settings.WithDefaults()
	if err := trivia.ValidateSettings(&settings); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Name: %s", settings.Name),
		fmt.Sprintf("✓ Rounds: %d x %s", settings.RoundsPerSession, settings.RoundDuration.Std()),
		fmt.Sprintf("✓ Countdown: %d x %s", settings.CountdownTicks, settings.CountdownInterval.Std()),
	)
	for _, tier := range settings.Tiers {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Within %s: %d points", tier.Within.Std(), tier.Points))
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Slower: %d points", settings.SlowPoints))

	return result
}

func globAll(dir string, patterns ...string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func printResult(result ValidationResult) bool {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Errors {
			fmt.Println("  " + info)
		}
		return true
	}

	fmt.Println("❌ INVALID")
	for _, err := range result.Errors {
		if !strings.HasPrefix(err, "✓") {
			fmt.Println("  ❌ " + err)
		}
	}
	return false
}

// main validates every bank and preset, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	flag.Parse()

	banks, err := globAll(*questionsDir, "*.txt", "*.json")
	if err != nil {
		fmt.Printf("Error finding question banks: %v\n", err)
		os.Exit(1)
	}
	presets, err := globAll(*configDir, "*.json")
	if err != nil {
		fmt.Printf("Error finding presets: %v\n", err)
		os.Exit(1)
	}
	if len(banks)+len(presets) == 0 {
		fmt.Println("No question banks or presets found")
		os.Exit(1)
	}

	allValid := true
	for _, file := range banks {
		allValid = printResult(validateBank(file)) && allValid
	}
	for _, file := range presets {
		allValid = printResult(validatePreset(file)) && allValid
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All question banks and presets are valid!")
	} else {
		fmt.Println("❌ Some files have errors")
		os.Exit(1)
	}
}
