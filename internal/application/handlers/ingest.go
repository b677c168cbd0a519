package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/tankgraph/internal/domain/entities"
	"github.com/ersonp/tankgraph/internal/domain/ports"
	"github.com/ersonp/tankgraph/internal/domain/services"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/graphio"
	"github.com/ersonp/tankgraph/internal/infrastructure/parsers"
	"github.com/ersonp/tankgraph/internal/infrastructure/triplestore"
)

// IngestHandler builds a graph from the source tables and saves it.
type IngestHandler struct {
	repo          ports.SnapshotRepository
	logger        *zap.SugaredLogger
	progressEvery int
}

// NewIngestHandler creates a new ingest handler saving into repo.
func NewIngestHandler(repo ports.SnapshotRepository, logger *zap.SugaredLogger, progressEvery int) *IngestHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &IngestHandler{
		repo:          repo,
		logger:        logger,
		progressEvery: progressEvery,
	}
}

// IngestOptions controls ingestion behavior.
type IngestOptions struct {
	CataloguePath  string // empty skips the catalogue pass
	BattlesPath    string // empty skips the battle pass
	CatalogueComma rune
	BattlesComma   rune

	Tanks   int // catalogue rows to read, 0 for all
	Battles int // battle rows to select, 0 for all
	Random  bool
	Seed    uint64

	// Extend starts from the stored graph instead of an empty one.
	Extend bool
	// Output additionally writes the graph as a JSON document.
	Output string
}

// IngestResult contains the result of ingestion.
type IngestResult struct {
	Report      *services.IngestReport
	Snapshot    *entities.Snapshot
	BaseTriples int // triples loaded from the stored graph when extending
	OutputPath  string
}

// Handle reads the source tables, runs the ingestion session and saves the
// snapshot. Nothing is written if reading or ingesting fails.
func (h *IngestHandler) Handle(ctx context.Context, opts IngestOptions) (*IngestResult, error) {
	if opts.CataloguePath == "" && opts.BattlesPath == "" {
		return nil, errors.NewInvalidRequestError("no source tables given")
	}

	catalogue, catalogueDigest, err := readTable(opts.CataloguePath, sourceParser(opts.CataloguePath, opts.CatalogueComma))
	if err != nil {
		return nil, err
	}
	battles, battlesDigest, err := readTable(opts.BattlesPath, sourceParser(opts.BattlesPath, opts.BattlesComma))
	if err != nil {
		return nil, err
	}

	store := triplestore.New()
	counters := entities.NewUsageCounters()
	result := &IngestResult{}

	if opts.Extend {
		base, err := h.repo.LoadSnapshot(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "loading base graph")
		}
		store = triplestore.FromTriples(base.Triples)
		counters.Merge(base.Counters)
		result.BaseTriples = store.Count()
		h.logger.Infow("Extending stored graph", "triples", result.BaseTriples)
	}

	svc := services.NewIngestionService(store, h.logger, services.WithProgressEvery(h.progressEvery))
	report, err := svc.Ingest(ctx, services.IngestRequest{
		Catalogue:        catalogue,
		Battles:          battles,
		CatalogueOptions: services.CatalogueOptions{
			Limit:  opts.Tanks,
			Source: catalogueDigest,
		},
		BattleOptions: services.BattleOptions{
			Limit:  opts.Battles,
			Random: opts.Random,
			Seed:   opts.Seed,
			Source: battlesDigest,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "ingesting")
	}
	counters.Merge(report.Counters)

	snap := &entities.Snapshot{
		Triples:  store.Triples(),
		Counters: counters,
		Run:      report.Run(),
	}

	if opts.Output != "" {
		if err := writeJSONFile(opts.Output, snap); err != nil {
			return nil, err
		}
		result.OutputPath = opts.Output
	}

	if err := h.repo.SaveSnapshot(ctx, snap); err != nil {
		return nil, errors.Wrap(err, "saving snapshot")
	}

	result.Report = report
	result.Snapshot = snap
	return result, nil
}

// sourceParser picks a parser from the file extension. Anything that is
// not JSON or TSV is read as delimited text split on comma.
func sourceParser(path string, comma rune) parsers.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".tsv":
		return parsers.ForFile(path)
	}
	return &parsers.CSVParser{Comma: comma}
}

// digestLen is how many hex characters of the content hash name a source.
const digestLen = 16

// readTable parses the table at path and returns it with the digest of its
// content. An empty path yields nil.
func readTable(path string, parser parsers.Parser) (*parsers.Table, string, error) {
	if path == "" {
		return nil, "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "resolving path")
	}

	file, err := os.Open(absPath)
	if os.IsNotExist(err) {
		return nil, "", errors.NewNotFoundError("source file %s", absPath)
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "opening source file")
	}
	defer file.Close()

	hash := sha256.New()
	table, err := parser.Parse(io.TeeReader(file, hash))
	if err != nil {
		return nil, "", errors.Wrapf(err, "parsing %s", filepath.Base(absPath))
	}
	// Parsers may stop before EOF.
	if _, err := io.Copy(hash, file); err != nil {
		return nil, "", errors.Wrap(err, "reading source file")
	}
	return table, hex.EncodeToString(hash.Sum(nil))[:digestLen], nil
}

// writeJSONFile writes snap next to path and renames it into place so a
// failed write never leaves a partial document.
func writeJSONFile(path string, snap *entities.Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tankgraph-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = graphio.WriteJSON(tmp, snap); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing graph")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "moving graph into place")
	}
	return nil
}
