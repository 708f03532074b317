package colors

import "fmt"

// ColorFunc colorizes any value into a string. Passing one to a Logger colors the arguments that follow it.
type ColorFunc = func(s any) string

// Reset returns the input unchanged and ends the color context started by a previous ColorFunc.
func Reset(s any) string {
	return fmt.Sprintf("%v", s)
}

// Bold emboldens the input.
func Bold(s any) string {
	return Colorize(s, BOLD)
}

// Red colors the input red. Used for compiler diagnostics.
func Red(s any) string {
	return Colorize(s, RED)
}

// Yellow colors the input yellow.
func Yellow(s any) string {
	return Colorize(s, YELLOW)
}

// RedBold, GreenBold, YellowBold, BlueBold and CyanBold color the level tags of console output.
var (
	RedBold    = bold(RED)
	GreenBold  = bold(GREEN)
	YellowBold = bold(YELLOW)
	BlueBold   = bold(BLUE)
	CyanBold   = bold(CYAN)
)

func bold(color Color) ColorFunc {
	return func(s any) string {
		return Colorize(Colorize(s, color), BOLD)
	}
}
