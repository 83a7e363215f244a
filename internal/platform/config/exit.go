package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Exitf reports a fatal command error on stderr and exits with code 1. A
// trailing newline in format is not doubled.
func Exitf(format string, args ...any) {
	fmt.Fprintln(stderr, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
	exit(1)
}
