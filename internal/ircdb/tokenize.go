package ircdb

import "strings"

// Tokenize splits a database line into its whitespace separated columns.
// Runs of spaces, tabs and the trailing newline never produce empty tokens.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// explodeActions splits an action column such as "Bc" into single-character
// codes.
func explodeActions(column string) []string {
	return strings.Split(column, "")
}

// normalizeName replaces the reserved '|' separator found in some IRC
// nicknames so they are usable as file names on every platform.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "|", "_")
}
