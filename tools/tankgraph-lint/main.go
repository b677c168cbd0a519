// tankgraph-lint is a custom static analyzer for tankgraph performance patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/tankgraph/tools/tankgraph-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
