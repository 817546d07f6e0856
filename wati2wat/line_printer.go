package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type LineType int8

const (
	FULL  LineType = 0
	ELIDE LineType = 1
)

// LinePrinter prints lines to a terminal, overprinting the status line when
// the terminal is smart enough.
type LinePrinter struct {
	out io.Writer

	// Whether we can do fancy terminal control codes.
	smartTerminal bool

	// Whether we can use ISO 6429 (ANSI) color sequences.
	supportsColor bool

	// Whether the caret is at the beginning of a blank line.
	haveBlankLine bool

	consoleLocked bool
	lineBuffer    string
	lineType      LineType
	outputBuffer  string

	width int
}

func NewLinePrinter() *LinePrinter {
	p := &LinePrinter{out: os.Stdout, haveBlankLine: true, width: 120}
	term := os.Getenv("TERM")
	p.smartTerminal = isatty.IsTerminal(os.Stdout.Fd()) && term != "" && term != "dumb"
	p.supportsColor = p.smartTerminal
	if !p.supportsColor {
		force := os.Getenv("CLICOLOR_FORCE")
		p.supportsColor = force != "" && force != "0"
	}
	color.NoColor = !p.supportsColor
	return p
}

func (p *LinePrinter) IsSmartTerminal() bool       { return p.smartTerminal }
func (p *LinePrinter) SetSmartTerminal(smart bool) { p.smartTerminal = smart }
func (p *LinePrinter) SupportsColor() bool         { return p.supportsColor }

// elideMiddle shortens s to maxWidth by replacing its middle with "...".
func elideMiddle(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth < 5 {
		return s[:maxWidth]
	}
	half := (maxWidth - 3) / 2
	return s[:half] + "..." + s[len(s)-(maxWidth-3-half):]
}

// Print overprints the current line. If lineType is ELIDE, toPrint is elided
// to fit on one line.
func (p *LinePrinter) Print(toPrint string, lineType LineType) {
	if p.consoleLocked {
		p.lineBuffer = toPrint
		p.lineType = lineType
		return
	}

	if p.smartTerminal {
		fmt.Fprint(p.out, "\r")
	}

	if p.smartTerminal && lineType == ELIDE {
		fmt.Fprint(p.out, elideMiddle(toPrint, p.width))
		fmt.Fprint(p.out, "\033[K")
		p.haveBlankLine = false
	} else {
		fmt.Fprintf(p.out, "%s\n", toPrint)
		p.haveBlankLine = true
	}
}

// PrintOnNewLine prints a string on a new line, not overprinting previous
// output.
func (p *LinePrinter) PrintOnNewLine(toPrint string) {
	if p.consoleLocked && p.lineBuffer != "" {
		p.outputBuffer += p.lineBuffer + "\n"
		p.lineBuffer = ""
	}
	if !p.haveBlankLine {
		p.PrintOrBuffer("\n")
	}
	if toPrint != "" {
		p.PrintOrBuffer(toPrint)
	}
	p.haveBlankLine = toPrint == "" || toPrint[len(toPrint)-1] == '\n'
}

// SetConsoleLocked locks or unlocks the console. Output sent while the
// console is locked is held back until it is unlocked.
func (p *LinePrinter) SetConsoleLocked(locked bool) {
	if locked == p.consoleLocked {
		return
	}
	if locked {
		p.PrintOnNewLine("")
	}
	p.consoleLocked = locked
	if !locked {
		p.PrintOnNewLine(p.outputBuffer)
		if p.lineBuffer != "" {
			p.Print(p.lineBuffer, p.lineType)
		}
		p.outputBuffer = ""
		p.lineBuffer = ""
	}
}

func (p *LinePrinter) PrintOrBuffer(data string) {
	if p.consoleLocked {
		p.outputBuffer += data
	} else {
		io.WriteString(p.out, data)
	}
}
