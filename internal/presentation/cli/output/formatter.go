// Package output renders command results for the terminal. Every command
// writes through one Formatter, which owns the text/json switch, ANSI
// color handling and the table layout used by the log and timesheet
// listings. The frame and timesheet renderers live in render.go.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Format selects how command results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formatter writes command output in the selected format. Safe for
// concurrent use; the status watch loop re-renders from a goroutine.
type Formatter struct {
	mu           sync.Mutex
	writer       io.Writer
	format       Format
	colorEnabled bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// NewFormatter creates a Formatter writing colored text to stdout.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{
		writer:       os.Stdout,
		format:       FormatText,
		colorEnabled: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(f *Formatter) {
		f.colorEnabled = enabled
	}
}

// Format returns the current output format.
func (f *Formatter) Format() Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// SetFormat changes the output format.
func (f *Formatter) SetFormat(format Format) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.format = format
}

// SetColor enables or disables colored output.
func (f *Formatter) SetColor(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colorEnabled = enabled
}

// Print writes formatted output without a newline.
func (f *Formatter) Print(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, format, args...)
	return err
}

// Println writes formatted output with a newline.
func (f *Formatter) Println(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, format+"\n", args...)
	return err
}

// Colorize wraps text in the given ANSI color when color is enabled.
func (f *Formatter) Colorize(text string, color Color) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.colorEnabled {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// Success prints a green checkmarked message.
func (f *Formatter) Success(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return f.Println("%s", f.Colorize("✓ "+msg, ColorGreen))
}

// Error prints a red error message.
func (f *Formatter) Error(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return f.Println("%s", f.Colorize("✗ "+msg, ColorRed))
}

// Warning prints a yellow warning message.
func (f *Formatter) Warning(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return f.Println("%s", f.Colorize("⚠ "+msg, ColorYellow))
}

// Info prints a blue informational message.
func (f *Formatter) Info(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return f.Println("%s", f.Colorize("ℹ "+msg, ColorBlue))
}

// Bold renders text in bold.
func (f *Formatter) Bold(text string) string {
	return f.Colorize(text, ColorBold)
}

// Dim renders text in dim/muted style.
func (f *Formatter) Dim(text string) string {
	return f.Colorize(text, ColorDim)
}

// Header prints a section header with an underline rule.
func (f *Formatter) Header(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.colorEnabled {
		fmt.Fprintf(f.writer, "%s%s%s\n", ColorBold, msg, ColorReset)
	} else {
		fmt.Fprintln(f.writer, msg)
	}
	fmt.Fprintln(f.writer, strings.Repeat("─", len(msg)))
	return nil
}

// SubHeader prints a cyan sub-header.
func (f *Formatter) SubHeader(msg string) error {
	return f.Println("%s", f.Colorize(msg, ColorCyan))
}

// Item prints an indented key-value pair.
func (f *Formatter) Item(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.colorEnabled {
		_, err := fmt.Fprintf(f.writer, "  %s%s%s: %s\n", ColorDim, key, ColorReset, value)
		return err
	}
	_, err := fmt.Fprintf(f.writer, "  %s: %s\n", key, value)
	return err
}

// BulletItem prints a bulleted list item.
func (f *Formatter) BulletItem(msg string) error {
	return f.Println("  • %s", msg)
}

// TableColumn defines one column of a listing.
type TableColumn struct {
	Header string
	Align  Alignment
}

// Alignment defines text alignment in table cells.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableData holds the rows of a listing, one cell slice per row.
type TableData struct {
	Columns []TableColumn
	Rows    [][]string
}

// Table writes a listing with columns sized to their widest cell.
func (f *Formatter) Table(data TableData) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data.Columns) == 0 {
		return nil
	}

	widths := make([]int, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = len(col.Header)
	}
	for _, row := range data.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header strings.Builder
	var rule strings.Builder
	for i, col := range data.Columns {
		header.WriteString(padCell(col.Header, widths[i], col.Align))
		rule.WriteString(strings.Repeat("-", widths[i]))
		if i < len(data.Columns)-1 {
			header.WriteString("  ")
			rule.WriteString("  ")
		}
	}

	var err error
	if f.colorEnabled {
		_, err = fmt.Fprintf(f.writer, "%s%s%s\n", ColorBold, header.String(), ColorReset)
	} else {
		_, err = fmt.Fprintln(f.writer, header.String())
	}
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintln(f.writer, rule.String()); err != nil {
		return err
	}

	for _, row := range data.Rows {
		var line strings.Builder
		for i, cell := range row {
			if i >= len(data.Columns) {
				break
			}
			line.WriteString(padCell(cell, widths[i], data.Columns[i].Align))
			if i < len(data.Columns)-1 {
				line.WriteString("  ")
			}
		}
		if _, err = fmt.Fprintln(f.writer, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func padCell(text string, width int, align Alignment) string {
	if len(text) >= width {
		return text
	}
	padding := strings.Repeat(" ", width-len(text))
	if align == AlignRight {
		return padding + text
	}
	return text + padding
}

// JSON writes data as indented JSON.
func (f *Formatter) JSON(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
