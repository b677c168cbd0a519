// Package compileloop detects regexp and query compilation inside loops.
package compileloop

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"

	"github.com/ersonp/tankgraph/tools/tankgraph-lint/analyzers/loopbody"
)

// Analyzer detects regexp.Compile and query.Parse calls inside loops.
var Analyzer = &analysis.Analyzer{
	Name:     "compileloop",
	Doc:      "detects regexp compilation and query parsing inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// compileFuncs lists package-level functions whose result can be reused,
// keyed by package name.
var compileFuncs = map[string]map[string]bool{
	"regexp": {
		"Compile":          true,
		"MustCompile":      true,
		"CompilePOSIX":     true,
		"MustCompilePOSIX": true,
	},
	"query": {
		"Parse": true,
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	loopbody.Calls(pass, func(call *ast.CallExpr, sel *ast.SelectorExpr) {
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return
		}
		if compileFuncs[ident.Name][sel.Sel.Name] {
			pass.Reportf(call.Pos(),
				"%s.%s called inside loop - compile once outside loop",
				ident.Name, sel.Sel.Name)
		}
	})
	return nil, nil
}
