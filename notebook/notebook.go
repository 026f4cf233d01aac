package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/assemble/slicer/models"
)

const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"

	percentMarker = "# %%"
)

var (
	ErrNoCodeCells       = errors.New("notebook has no code cells")
	ErrCellOutOfRange    = errors.New("cell index out of range")
	ErrEmptyCell         = errors.New("selected cell does not have any code content")
	ErrUnsupportedFormat = errors.New("unsupported notebook format")
)

// Cell is one notebook cell with its source joined into a single text.
type Cell struct {
	Type   string
	Source string
}

// Notebook is an ordered list of cells.
type Notebook struct {
	Path  string
	Cells []Cell
}

type ipynbFile struct {
	Cells []ipynbCell `json:"cells"`
}

type ipynbCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// Load reads a .ipynb notebook or a percent-format .py script.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook: %w", err)
	}

	var nb *Notebook
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ipynb":
		nb, err = ParseIPYNB(data)
	case ".py":
		nb = ParsePercentScript(string(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	nb.Path = path
	return nb, nil
}

// ParseIPYNB decodes the cells of a Jupyter notebook. A cell source may be a string or a list of lines.
func ParseIPYNB(data []byte) (*Notebook, error) {
	var file ipynbFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode notebook: %w", err)
	}

	nb := &Notebook{}
	for i, raw := range file.Cells {
		source, err := decodeSource(raw.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to decode source of cell %d: %w", i, err)
		}
		nb.Cells = append(nb.Cells, Cell{Type: raw.CellType, Source: strings.TrimSuffix(source, "\n")})
	}

	return nb, nil
}

func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, ""), nil
}

// ParsePercentScript splits a script on "# %%" markers. Text before the first marker is a code cell when
// it is not blank, and a marker ending in "[markdown]" starts a markdown cell.
func ParsePercentScript(text string) *Notebook {
	nb := &Notebook{}

	cellType := CellTypeCode
	var lines []string
	flush := func(force bool) {
		source := strings.Join(lines, "\n")
		if force || strings.TrimSpace(source) != "" {
			nb.Cells = append(nb.Cells, Cell{Type: cellType, Source: strings.TrimRight(source, "\n")})
		}
		lines = nil
	}

	started := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, percentMarker) {
			flush(started)
			started = true
			cellType = CellTypeCode
			if strings.Contains(line, "[markdown]") {
				cellType = CellTypeMarkdown
			}
			continue
		}
		lines = append(lines, line)
	}
	flush(started)

	return nb
}

// CodeCells returns the code cells in notebook order.
func (n *Notebook) CodeCells() []Cell {
	var cells []Cell
	for _, cell := range n.Cells {
		if cell.Type == CellTypeCode {
			cells = append(cells, cell)
		}
	}
	return cells
}

// Document flattens the lines of every code cell, in order.
func (n *Notebook) Document() models.SourceDocument {
	var lines []string
	for _, cell := range n.CodeCells() {
		lines = append(lines, strings.Split(cell.Source, "\n")...)
	}
	return models.SourceDocument{Lines: lines}
}

// ActiveCell returns the source of the code cell at index among code cells. A negative index counts from the end.
func (n *Notebook) ActiveCell(index int) (string, error) {
	cells := n.CodeCells()
	if len(cells) == 0 {
		return "", ErrNoCodeCells
	}

	if index < 0 {
		index += len(cells)
	}
	if index < 0 || index >= len(cells) {
		return "", fmt.Errorf("%w: %d of %d code cells", ErrCellOutOfRange, index, len(cells))
	}

	source := cells[index].Source
	if strings.TrimSpace(source) == "" {
		return "", ErrEmptyCell
	}
	return source, nil
}
