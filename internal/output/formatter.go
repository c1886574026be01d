// Package output renders clone reports as text, markdown, JSON or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	toon "github.com/toon-format/toon-go"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	default:
		return FormatText
	}
}

// Formatter writes reports and status messages in one format.
type Formatter struct {
	format  Format
	w       io.Writer
	closer  io.Closer
	colored bool
}

// NewWriterFormatter creates a formatter writing to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, w: w, colored: colored}
}

// CreateFormatter creates or truncates path and returns an uncolored
// formatter writing to it. The caller must Close it.
func CreateFormatter(format Format, path string) (*Formatter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &Formatter{format: format, w: f, closer: f}, nil
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Colored reports whether ANSI colors are written.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes data in the configured format. Values that are not
// Renderable are serialized; markdown wraps them in a JSON code fence.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.serialize(data)
	}
	switch f.format {
	case FormatJSON, FormatTOON:
		return f.serialize(r.RenderData())
	case FormatMarkdown:
		return r.RenderMarkdown(f.w)
	default:
		return r.RenderText(f.w, f.colored)
	}
}

func (f *Formatter) serialize(data any) error {
	format := f.format
	fence := format == FormatMarkdown
	if format != FormatTOON {
		format = FormatJSON
	}
	out, err := Marshal(format, data)
	if err != nil {
		return err
	}
	if fence {
		out = "```json\n" + out + "\n```"
	}
	_, err = fmt.Fprintln(f.w, out)
	return err
}

// Marshal serializes data as JSON or TOON. Other formats fall back to TOON,
// the most compact for tool consumers.
func Marshal(format Format, data any) (string, error) {
	if format == FormatJSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", fmt.Errorf("toon: %w", err)
	}
	return string(out), nil
}

// Success prints a status line, green when colored.
func (f *Formatter) Success(format string, args ...any) {
	f.message(color.FgGreen, "", format, args...)
}

// Warning prints a status line, yellow when colored and prefixed otherwise.
func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.FgYellow, "WARNING: ", format, args...)
}

func (f *Formatter) message(attr color.Attribute, plainPrefix, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if f.colored {
		color.New(attr).Fprintln(f.w, line)
		return
	}
	fmt.Fprintln(f.w, plainPrefix+line)
}
