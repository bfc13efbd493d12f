// Package questions loads trivia question banks from disk.
//
// A bank is either a text file with one question per line:
//
//	What is the largest planet?;Science;Mars,Jupiter,Venus;Jupiter
//
// or a JSON array of objects with text, category, options and correct
// fields. Malformed entries are skipped and logged; they never fail the
// whole bank.
package questions
