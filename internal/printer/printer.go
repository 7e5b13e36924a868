// Package printer writes operator-facing messages to the terminal: status
// lines, warnings for skipped updates and boxed fatal errors.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Tokyo Night palette
const (
	colorRed    = lipgloss.Color("#d75f6b")
	colorGreen  = lipgloss.Color("#9ece6a")
	colorYellow = lipgloss.Color("#e0af68")
	colorGray   = lipgloss.Color("#565f89")
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

// Printer handles formatted output with colors and styles
type Printer struct {
	writer io.Writer

	red    lipgloss.Style
	green  lipgloss.Style
	yellow lipgloss.Style
	gray   lipgloss.Style
	bold   lipgloss.Style
}

// New creates a Printer writing to w. Color is used only when color is true,
// NO_COLOR is unset and w is a terminal.
func New(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color && ColorEnabled(w) {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		writer: w,
		red:    r.NewStyle().Foreground(colorRed),
		green:  r.NewStyle().Foreground(colorGreen),
		yellow: r.NewStyle().Foreground(colorYellow),
		gray:   r.NewStyle().Foreground(colorGray),
		bold:   r.NewStyle().Bold(true),
	}
}

// ColorEnabled reports whether w can show ANSI colors.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) println(s string) {
	_, _ = io.WriteString(p.writer, s+"\n")
}

// FatalError prints a formatted error box and does NOT exit.
// Caller should handle exit code.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.printValidationErrors(err, fieldErrs)
		return
	}

	p.println(p.red.Render("╭ Error"))
	p.println(p.red.Render("│") + " " + p.gray.Render(err.Error()))
	p.println(p.red.Render("╵"))
}

// printValidationErrors prints one line per invalid field under the context
// the error was wrapped with.
func (p *Printer) printValidationErrors(wrappedErr error, fieldErrs criterio.FieldErrors) {
	errStr := wrappedErr.Error()
	fieldErrStr := fieldErrs.Error()

	errContext := ""
	if idx := strings.Index(errStr, fieldErrStr); idx > 0 {
		errContext = strings.TrimSuffix(errStr[:idx], ": ")
	}

	p.println(p.red.Render("╭ Validation Error"))
	if errContext != "" {
		p.println(p.red.Render("│") + " " + p.gray.Render(errContext))
		p.println(p.red.Render("│"))
	}
	for _, fe := range fieldErrs {
		line := p.red.Render("│") + " " + p.red.Render(Cross) + " "
		if fe.Field != "" {
			line += p.gray.Render(fe.Field + ": ")
		}
		line += fe.Err.Error()
		p.println(line)
	}
	p.println(p.red.Render("╵"))
}

// Skipped reports a streaming update that was not applied.
func (p *Printer) Skipped(line int, err error) {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		p.Warnf("line %d skipped: %v", line, err)
		return
	}
	p.Warnf("line %d rejected:", line)
	for _, fe := range fieldErrs {
		p.println("  " + p.yellow.Render(Cross) + " " + p.gray.Render(fe.Field+": ") + fe.Err.Error())
	}
}

// Errorf prints an error message in red
func (p *Printer) Errorf(format string, args ...any) {
	p.println(p.red.Render(Cross + " " + fmt.Sprintf(format, args...)))
}

// Successf prints a success message in green
func (p *Printer) Successf(format string, args ...any) {
	p.println(p.green.Render(Check + " " + fmt.Sprintf(format, args...)))
}

// Infof prints an info message in gray
func (p *Printer) Infof(format string, args ...any) {
	p.println(p.gray.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Warnf prints a warning message in yellow
func (p *Printer) Warnf(format string, args ...any) {
	p.println(p.yellow.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Bold makes text bold
func (p *Printer) Bold(text string) string {
	return p.bold.Render(text)
}
