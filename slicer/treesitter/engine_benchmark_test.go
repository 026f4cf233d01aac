package treesitter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/meysamhadeli/assemble/slicer"
	"github.com/meysamhadeli/assemble/slicer/models"
)

func benchmarkNotebook(cells int) string {
	var b strings.Builder
	b.WriteString("import pandas as pd\n")
	for i := 0; i < cells; i++ {
		fmt.Fprintf(&b, "col_%d = pd.Series(range(%d))\n", i, i+1)
		fmt.Fprintf(&b, "feature_%d = col_%d * 2 + col_%d.mean()\n", i, i, i)
	}
	b.WriteString("result = feature_0 + feature_1\n")
	return b.String()
}

// BenchmarkSliceActiveUnit compares slicing with and without the parse cache.
func BenchmarkSliceActiveUnit(b *testing.B) {
	text := benchmarkNotebook(200)
	doc := models.NewSourceDocument(text)
	active := "result = feature_0 + feature_1"

	b.Run("NoCache", func(b *testing.B) {
		engine := NewEngine(nil, nil)
		for i := 0; i < b.N; i++ {
			if _, err := slicer.SliceActiveUnit(context.Background(), engine, active, doc); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Cache", func(b *testing.B) {
		cache, err := slicer.NewCacheManager(b.TempDir())
		if err != nil {
			b.Fatal(err)
		}
		engine := NewEngine(cache, nil)
		for i := 0; i < b.N; i++ {
			if _, err := slicer.SliceActiveUnit(context.Background(), engine, active, doc); err != nil {
				b.Fatal(err)
			}
		}
	})
}
