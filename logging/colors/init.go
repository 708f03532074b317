package colors

// init turns on ANSI coloring, which Windows consoles need to opt into.
func init() {
	EnableColor()
}
