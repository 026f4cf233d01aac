package contracts

import (
	"context"

	"github.com/meysamhadeli/assemble/slicer/models"
)

// IDependencySlicingEngine parses source text and computes the lines a location depends on.
type IDependencySlicingEngine interface {
	Parse(ctx context.Context, text string) (*models.AnalyzedProgram, error)
	Slice(program *models.AnalyzedProgram, location models.LocationSet) (models.LocationSet, error)
}
