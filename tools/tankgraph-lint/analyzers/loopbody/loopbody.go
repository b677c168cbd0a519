// Package loopbody walks the calls made inside loop bodies.
package loopbody

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Calls invokes fn once for every selector call (x.Name(...)) inside a for
// or range body, however deeply the loops nest.
func Calls(pass *analysis.Pass, fn func(call *ast.CallExpr, sel *ast.SelectorExpr)) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	seen := make(map[*ast.CallExpr]bool)
	insp.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Function literals run when called, not per iteration.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok || seen[call] {
				return true
			}
			if sel, ok := call.Fun.(*ast.SelectorExpr); ok {
				seen[call] = true
				fn(call, sel)
			}
			return true
		})
	})
}
