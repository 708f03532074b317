//go:build !windows
// +build !windows

package colors

import "fmt"

// enabled describes whether ANSI escape codes are emitted by Colorize.
var enabled = true

// EnableColor turns colorized output on. Non-windows systems always support ANSI escape codes.
func EnableColor() {
	enabled = true
}

// Enabled reports whether Colorize emits ANSI escape codes.
func Enabled() bool {
	return enabled
}

// DisableColor turns colorized output off. Colorize returns its input unchanged afterwards.
func DisableColor() {
	enabled = false
}

// Colorize returns the string s wrapped in ANSI code c for non-windows systems
// Source: https://github.com/rs/zerolog/blob/4fff5db29c3403bc26dee9895e12a108aacc0203/console.go
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
