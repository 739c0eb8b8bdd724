package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorGreen  = "\033[0;32m"
	colorRed    = "\033[0;31m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorReset  = "\033[0m"
)

// out is where every Print helper writes. Tests swap it.
var out io.Writer = os.Stdout

// colorEnabled honours the NO_COLOR convention.
func colorEnabled() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return !set
}

func printLine(color, marker, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if colorEnabled() {
		fmt.Fprintf(out, "%s%s %s%s\n", color, marker, msg, colorReset)
		return
	}
	fmt.Fprintf(out, "%s %s\n", marker, msg)
}

func PrintInfo(format string, a ...any)    { printLine(colorBlue, "ℹ", format, a...) }
func PrintSuccess(format string, a ...any) { printLine(colorGreen, "✓", format, a...) }
func PrintWarning(format string, a ...any) { printLine(colorYellow, "⚠", format, a...) }
func PrintError(format string, a ...any)   { printLine(colorRed, "✗", format, a...) }

func PrintHeader(title string) {
	fmt.Fprintln(out)
	printLine(colorYellow, "===", "%s ===", title)
}
