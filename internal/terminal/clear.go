// Package terminal provides prompt helpers: reading a secret without echo and
// clearing the prompt lines afterwards so no trace of the input remains.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// ClearPreviousLines clears text from the terminal that was previously printed.
// It calculates how many lines the text occupied at the current terminal width
// (80 columns when unknown), plus the line created by the user pressing Enter,
// then moves up and clears each one.
func ClearPreviousLines(textLength int) {
	termWidth := 80
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		termWidth = width
	}
	fmt.Print(clearSequence(textLength, termWidth))
}

func clearSequence(textLength, termWidth int) string {
	totalLines := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if totalLines < 1 {
		totalLines = 1
	}
	linesToClear := totalLines + 1

	var b strings.Builder
	for i := 0; i < linesToClear; i++ {
		b.WriteString("\r\x1b[2K") // start of line, clear it
		if i < linesToClear-1 {
			b.WriteString("\x1b[1A") // up one line
		}
	}
	return b.String()
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadSecret prints prompt and reads a line without echo when stdin is a
// terminal, or a plain line from in otherwise (pipes, CI).
func ReadSecret(prompt string, in io.Reader) (string, error) {
	fmt.Print(prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		ClearPreviousLines(len(prompt))
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadLine prints prompt and reads a plain line.
func ReadLine(prompt string, in io.Reader) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
