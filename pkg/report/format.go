package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	labelColor   = color.New(color.FgGreen)
	nameColor    = color.New(color.FgHiGreen)
	idColor      = color.New(color.FgHiCyan)
	detailColor  = color.New(color.FgHiMagenta)
	userColor    = color.New(color.FgHiBlue)
	warnColor    = color.New(color.FgHiYellow)
	errColor     = color.New(color.FgHiRed)
	appliedColor = color.New(color.FgGreen)
)

const fallbackWidth = 80

// drawLine writes a separator the width of the terminal, falling back to a
// fixed width when stdout is not a TTY.
func drawLine(out io.Writer) {
	width := fallbackWidth
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("#", width))
}

// field prints one "prefix.Name: value" report line with a colored value.
func field(out io.Writer, prefix, name, value string, c *color.Color) {
	fmt.Fprintf(out, "%s%s %s\n", labelColor.Sprintf("%s.", prefix), fmt.Sprintf("%-27s", name+":"), c.Sprint(value))
}

// timestamp prints a run timestamp line, substituting a yellow placeholder
// when the phase never happened.
func timestamp(out io.Writer, name, value, placeholder string) {
	if value == "" {
		field(out, "run", name, placeholder, warnColor)
		return
	}
	field(out, "run", name, value, idColor)
}
