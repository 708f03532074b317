package colors

// Color is an ANSI SGR code.
type Color int

// ANSI codes matching the ones zerolog's console writer uses.
const (
	BOLD   Color = 1
	RED    Color = 31
	GREEN  Color = 32
	YELLOW Color = 33
	BLUE   Color = 34
	CYAN   Color = 36
)

// LEFT_ARROW is the unicode glyph prefixed to info-level console lines.
const LEFT_ARROW = "⇾"
