package models

import "strings"

// LocationRange is a span of a source document. Lines are 1-indexed and inclusive on both ends.
type LocationRange struct {
	FirstLine   int `json:"first_line"`
	LastLine    int `json:"last_line"`
	FirstColumn int `json:"first_column"`
	LastColumn  int `json:"last_column"`
}

// Overlaps reports whether the two ranges share at least one line.
func (r LocationRange) Overlaps(other LocationRange) bool {
	return r.FirstLine <= other.LastLine && other.FirstLine <= r.LastLine
}

// LocationSet is an unordered collection of ranges; members may overlap.
type LocationSet []LocationRange

// SourceDocument is a snapshot of every code line of a notebook, in cell order.
type SourceDocument struct {
	Lines []string
}

// NewSourceDocument splits text on newlines.
func NewSourceDocument(text string) SourceDocument {
	return SourceDocument{Lines: strings.Split(text, "\n")}
}

// Text joins the document lines back together.
func (d SourceDocument) Text() string {
	return strings.Join(d.Lines, "\n")
}

// Len returns the number of lines in the document.
func (d SourceDocument) Len() int {
	return len(d.Lines)
}
