package colors

// Color is an ANSI color/style code.
type Color int

// Source: https://github.com/rs/zerolog/blob/4fff5db29c3403bc26dee9895e12a108aacc0203/console.go
const (
	RED Color = iota + 31
	GREEN
	YELLOW
	BLUE
	MAGENTA
	CYAN
	// BOLD is the ANSI code for bold text
	BOLD Color = 1
	// DARK_GRAY is the ANSI code for dark gray
	DARK_GRAY Color = 90
)

// LEFT_ARROW is the glyph printed in place of the "info" level on the console.
const LEFT_ARROW = "⇾"
