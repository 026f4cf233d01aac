package treesitter

import (
	"context"
	"fmt"
	"sort"

	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/slicer/contracts"
	"github.com/meysamhadeli/assemble/slicer/models"
	"github.com/pterm/pterm"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Engine is a statement-level backward slicer for Python. Each top-level statement is reduced to the
// names it defines and uses; a slice is the closure of the nearest preceding definitions of every use.
type Engine struct {
	cache  *slicer.CacheManager
	logger *pterm.Logger
}

// NewEngine creates an engine. cache may be nil to disable caching of parsed programs.
func NewEngine(cache *slicer.CacheManager, logger *pterm.Logger) contracts.IDependencySlicingEngine {
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	return &Engine{cache: cache, logger: logger}
}

func (e *Engine) Parse(ctx context.Context, text string) (*models.AnalyzedProgram, error) {
	hash := slicer.HashSource(text)

	if e.cache != nil {
		if program, found := e.cache.GetProgram(hash); found {
			e.logger.Debug("parsed program served from cache", e.logger.Args("hash", hash))
			return program, nil
		}
	}

	src := []byte(text)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &slicer.AnalysisError{Message: fmt.Sprintf("failed to parse code: %v", err)}
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, &slicer.AnalysisError{
			Message: fmt.Sprintf("syntax error at line %d", firstErrorLine(root)),
		}
	}

	program := &models.AnalyzedProgram{Hash: hash}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() == "comment" {
			continue
		}

		collector := newNameCollector(src)
		collector.visit(node, nil)

		program.Statements = append(program.Statements, models.Statement{
			Range: nodeRange(node),
			Defs:  collector.defs,
			Uses:  collector.uses,
		})
	}

	if e.cache != nil {
		if err := e.cache.SetProgram(program); err != nil {
			e.logger.Warn("failed to cache parsed program", e.logger.Args("error", err))
		}
	}

	e.logger.Debug("parsed program", e.logger.Args("hash", hash, "statements", len(program.Statements)))

	return program, nil
}

func (e *Engine) Slice(program *models.AnalyzedProgram, location models.LocationSet) (models.LocationSet, error) {
	if program == nil {
		return nil, fmt.Errorf("no analyzed program")
	}
	if len(location) == 0 {
		return nil, fmt.Errorf("no location to slice")
	}

	statements := program.Statements
	included := make(map[int]bool)
	var worklist []int

	for i, statement := range statements {
		for _, loc := range location {
			if statement.Range.Overlaps(loc) {
				included[i] = true
				worklist = append(worklist, i)
				break
			}
		}
	}

	if len(worklist) == 0 {
		return nil, fmt.Errorf("location does not cover any statement")
	}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, name := range statements[current].Uses {
			definer := nearestDefinition(statements, current, name)
			if definer >= 0 && !included[definer] {
				included[definer] = true
				worklist = append(worklist, definer)
			}
		}
	}

	indices := make([]int, 0, len(included))
	for i := range included {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	result := make(models.LocationSet, 0, len(indices))
	for _, i := range indices {
		result = append(result, statements[i].Range)
	}

	return result, nil
}

// nearestDefinition returns the index of the closest statement before "before" that defines name, or -1.
func nearestDefinition(statements []models.Statement, before int, name string) int {
	for j := before - 1; j >= 0; j-- {
		for _, def := range statements[j].Defs {
			if def == name {
				return j
			}
		}
	}
	return -1
}

func nodeRange(n *sitter.Node) models.LocationRange {
	start, end := n.StartPoint(), n.EndPoint()
	lastLine := int(end.Row) + 1
	// a node ending at column 0 stops at the previous line's newline
	if end.Column == 0 && end.Row > start.Row {
		lastLine--
	}
	return models.LocationRange{
		FirstLine:   int(start.Row) + 1,
		LastLine:    lastLine,
		FirstColumn: int(start.Column),
		LastColumn:  int(end.Column),
	}
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstErrorLine(child)
		}
	}
	return int(n.StartPoint().Row) + 1
}
