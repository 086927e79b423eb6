// Package presenter provides consistent user-facing CLI output: colored
// success, warning, error, and informational messages with quiet mode.
// Diagnostic output goes to stderr so assembled content on stdout stays
// pipeable.
package presenter

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stderr
	quiet bool

	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	sectionColor = color.New(color.Bold)
)

// SetQuiet suppresses all non-error output.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetOutput redirects presenter output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Success prints a confirmation message.
func Success(message string) {
	print(successColor, "✓ "+message, false)
}

// Warning prints a warning message.
func Warning(message string) {
	print(warningColor, "⚠ "+message, false)
}

// Error prints an error with surrounding context. Errors ignore quiet
// mode.
func Error(err error, context string) {
	if context == "" {
		print(errorColor, fmt.Sprintf("✗ %v", err), true)
		return
	}
	print(errorColor, fmt.Sprintf("✗ %s: %v", context, err), true)
}

// Info prints a plain informational message.
func Info(message string) {
	print(nil, message, false)
}

// Section prints a bold section header.
func Section(title string) {
	print(sectionColor, "\n"+title, false)
}

func print(c *color.Color, message string, always bool) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	if c != nil {
		c.Fprintln(out, message)
		return
	}
	fmt.Fprintln(out, message)
}
