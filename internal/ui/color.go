/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package ui holds the colored output helpers of the entityview CLI.
//
// Output goes to the writer passed in, so commands can print to
// cmd.OutOrStdout(). fatih/color disables colors on its own when NO_COLOR is
// set or the output is not a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// Red is used for errors.
	Red = color.New(color.FgRed)
	// Yellow is used for warnings.
	Yellow = color.New(color.FgYellow)
	// Green is used for success messages.
	Green = color.New(color.FgGreen)
	// Cyan is used for informational messages and counts.
	Cyan = color.New(color.FgCyan)
	// Bold is used for headers and labels.
	Bold = color.New(color.Bold)
	// Dim is used for ids and paths.
	Dim = color.New(color.Faint)
)

// InitColors turns colors off when noColor is set.
func InitColors(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// Successf prints a green message with a checkmark prefix.
func Successf(w io.Writer, format string, args ...any) {
	_, _ = Green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warningf prints a yellow message with a warning prefix.
func Warningf(w io.Writer, format string, args ...any) {
	_, _ = Yellow.Fprintf(w, "⚠ "+format+"\n", args...)
}

// Errorf prints a red message with an X prefix.
func Errorf(w io.Writer, format string, args ...any) {
	_, _ = Red.Fprintf(w, "✗ "+format+"\n", args...)
}

// Infof prints a cyan message with an info prefix.
func Infof(w io.Writer, format string, args ...any) {
	_, _ = Cyan.Fprintf(w, "ℹ "+format+"\n", args...)
}

// Header prints a bold header underlined with '='.
func Header(w io.Writer, text string) {
	_, _ = Bold.Fprintln(w, text)
	fmt.Fprintln(w, strings.Repeat("=", len(text)))
}

// Label returns text in bold.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns text dimmed.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a count in cyan.
func CountText(n int) string { return Cyan.Sprint(n) }
