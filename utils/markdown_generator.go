package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

const codeLanguage = "python"

// HighlightCode renders Python source with terminal colors in the given chroma theme, one numbered line at a time.
func HighlightCode(w io.Writer, code string, theme string) error {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, codeLanguage, "terminal256", theme); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		if _, err := fmt.Fprintf(w, "\x1b[90m%*d │\x1b[0m %s\n", width, i+1, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCodeBlock highlights code and falls back to plain text when highlighting fails.
func RenderCodeBlock(w io.Writer, code string, theme string) {
	if strings.TrimSpace(code) == "" {
		fmt.Fprintln(w, "\x1b[90m(no code)\x1b[0m")
		return
	}
	if err := HighlightCode(w, code, theme); err != nil {
		fmt.Fprintln(w, code)
	}
}
