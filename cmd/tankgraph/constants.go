package main

import (
	"github.com/ersonp/tankgraph/internal/infrastructure/graphio"
	"github.com/ersonp/tankgraph/internal/infrastructure/render"
)

// Defaults for CLI commands.
const (
	DefaultStatsRuns = 5
	// DateFormat is used when listing runs and graphs.
	DateFormat = "2006-01-02 15:04"
)

// Valid query result formats.
var validResultFormats = render.Formats

// Valid graph export formats.
var validExportFormats = graphio.Formats
