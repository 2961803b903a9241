// Package viz renders derivations and run summaries for the terminal
// with lipgloss, and follows a running simulation with a bubbletea view.
// Styles degrade to plain text when output is not a TTY.
package viz
