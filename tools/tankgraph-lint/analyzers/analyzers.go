// Package analyzers provides all custom static analyzers for tankgraph.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/tankgraph/tools/tankgraph-lint/analyzers/compileloop"
	"github.com/ersonp/tankgraph/tools/tankgraph-lint/analyzers/snapshotloop"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		snapshotloop.Analyzer,
		compileloop.Analyzer,
	}
}
