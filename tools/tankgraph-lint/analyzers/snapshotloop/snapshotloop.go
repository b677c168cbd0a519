// Package snapshotloop detects snapshot storage calls and whole-graph copies
// inside loops.
package snapshotloop

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"

	"github.com/ersonp/tankgraph/tools/tankgraph-lint/analyzers/loopbody"
)

// Analyzer detects snapshot repository calls and graph copies inside loops.
var Analyzer = &analysis.Analyzer{
	Name:     "snapshotloop",
	Doc:      "detects snapshot repository calls and whole-graph copies inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// repositoryMethods read or write a whole snapshot per call.
var repositoryMethods = map[string]bool{
	"SaveSnapshot": true,
	"LoadSnapshot": true,
	"ListRuns":     true,
	"EnsureSchema": true,
}

// copyMethods copy every triple of a store.
var copyMethods = map[string]bool{
	"Triples":     true,
	"FromTriples": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	loopbody.Calls(pass, func(call *ast.CallExpr, sel *ast.SelectorExpr) {
		name := sel.Sel.Name
		switch {
		case repositoryMethods[name]:
			pass.Reportf(call.Pos(),
				"%s called inside loop - load or save the snapshot once", name)
		case copyMethods[name]:
			pass.Reportf(call.Pos(),
				"%s copies the whole graph inside loop - iterate with AllMatching instead", name)
		}
	})
	return nil, nil
}
