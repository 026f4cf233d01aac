package slicer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/meysamhadeli/assemble/slicer/contracts"
	"github.com/meysamhadeli/assemble/slicer/models"
)

// ComputeRange returns the smallest line range of the document covered by the active unit.
// A document line belongs to the active unit when it is non-empty and the unit contains it verbatim.
// The column span is coarse: it only has to be wide enough for the slicing engine to accept it.
func ComputeRange(activeUnitText string, doc models.SourceDocument) (models.LocationSet, error) {
	if strings.TrimSpace(activeUnitText) == "" {
		return nil, invalid("compute range", ErrEmptyActiveContent)
	}
	if doc.Len() == 0 {
		return nil, invalid("compute range", ErrNoCode)
	}

	firstLineIdx := doc.Len()
	lastLineIdx := 0

	for i, line := range doc.Lines {
		if len(line) == 0 || !strings.Contains(activeUnitText, line) {
			continue
		}
		if i < firstLineIdx {
			firstLineIdx = i
		}
		if i > lastLineIdx {
			lastLineIdx = i
		}
	}

	// firstLineIdx still holds the sentinel when nothing matched
	if firstLineIdx == doc.Len() {
		return nil, invalid("compute range", ErrActiveContentNotFound)
	}

	lastColumn := len(doc.Lines[lastLineIdx])
	if len(doc.Lines[firstLineIdx]) > lastColumn {
		lastColumn = len(doc.Lines[firstLineIdx])
	}

	return models.LocationSet{{
		FirstLine:   firstLineIdx + 1,
		LastLine:    lastLineIdx + 1,
		FirstColumn: 0,
		LastColumn:  lastColumn,
	}}, nil
}

// ExtractCode rebuilds source text from the lines named by a slice, in document order and without duplicates.
func ExtractCode(sliceResult models.LocationSet, doc models.SourceDocument) (string, error) {
	if doc.Len() == 0 {
		return "", invalid("extract code", ErrNoCode)
	}
	if len(sliceResult) == 0 {
		return "", invalid("extract code", ErrSliceNotFound)
	}

	byLine := make(map[int]string)
	for _, loc := range sliceResult {
		for line := loc.FirstLine; line <= loc.LastLine; line++ {
			if line < 1 || line > doc.Len() {
				return "", invalid("extract code", fmt.Errorf("%w: %d", ErrLineOutOfRange, line))
			}
			byLine[line] = doc.Lines[line-1]
		}
	}

	lineNumbers := make([]int, 0, len(byLine))
	for line := range byLine {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)

	lines := make([]string, 0, len(lineNumbers))
	for _, line := range lineNumbers {
		lines = append(lines, byLine[line])
	}

	return strings.Join(lines, "\n"), nil
}

// SliceActiveUnit parses the whole document and returns the code the active unit depends on.
func SliceActiveUnit(ctx context.Context, engine contracts.IDependencySlicingEngine, activeUnitText string, doc models.SourceDocument) (string, error) {
	program, err := engine.Parse(ctx, doc.Text())
	if err != nil {
		return "", err
	}

	location, err := ComputeRange(activeUnitText, doc)
	if err != nil {
		return "", err
	}

	sliced, err := engine.Slice(program, location)
	if err != nil {
		return "", fmt.Errorf("failed to slice active unit: %w", err)
	}

	return ExtractCode(sliced, doc)
}
