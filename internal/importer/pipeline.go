package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/observability"
)

// DefaultUnit is assigned to every imported material. Prices are set
// later through catalog editing, never by the import.
const DefaultUnit = "un"

// Stats counts what happened to every candidate row of an import run.
type Stats struct {
	TotalProcessed int `json:"total_processed"`
	TotalInserted  int `json:"total_inserted"`
	TotalSkipped   int `json:"total_skipped"`
	TotalFailed    int `json:"total_failed"`
}

// Result is the terminal state of one import run. A failed run still
// carries the counts accumulated before the failing batch; rows already
// uploaded stay committed.
type Result struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	Stats            Stats    `json:"stats"`
	CompletedBatches []int    `json:"completed_batches"`
	UploadedCodes    []string `json:"-"`
}

// CatalogImporter is the slice of the materials service the pipeline
// uploads through.
type CatalogImporter interface {
	ImportIgnoreDuplicates(ctx context.Context, batch []materials.ImportRecord) (materials.ImportCounts, error)
}

// Pipeline ingests a spreadsheet into the material catalog.
//
// Stages run strictly in order: parse, validate and deduplicate, then
// upload fixed-size batches one at a time. Batches are sequential so the
// remote procedure sees bounded load and the audit trail stays ordered.
type Pipeline struct {
	catalog   CatalogImporter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewPipeline(catalog CatalogImporter, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Pipeline{catalog: catalog, batchSize: batchSize, logger: logger, metrics: metrics}
}

// Prepare turns a raw grid into the deduplicated upload set. The first
// row is a header and is always dropped. A row is skipped when it has
// fewer than two cells, an empty code, or a description that is empty
// after sanitization. Duplicated codes keep the first occurrence.
func Prepare(rows [][]string) (records []materials.ImportRecord, skipped int) {
	seen := make(map[string]struct{})
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			skipped++
			continue
		}
		description := SanitizeDescription(row[1])
		if description == "" {
			skipped++
			continue
		}
		if _, dup := seen[code]; dup {
			skipped++
			continue
		}
		seen[code] = struct{}{}
		records = append(records, materials.ImportRecord{
			Code:        code,
			Description: description,
			Unit:        DefaultUnit,
			Price:       0,
		})
	}
	return records, skipped
}

// Run executes the whole pipeline against raw workbook bytes. The first
// failing batch aborts the run; earlier batches stay committed and the
// remaining rows are counted as failed. The error is returned together
// with the partial result.
func (p *Pipeline) Run(ctx context.Context, data []byte) (Result, error) {
	rows, err := ParseWorkbook(data)
	if err != nil {
		return Result{Message: "spreadsheet could not be read"}, err
	}

	candidates := 0
	if len(rows) > 1 {
		candidates = len(rows) - 1
	}
	records, rejected := Prepare(rows)

	result := Result{
		Stats: Stats{
			TotalProcessed: candidates,
			TotalSkipped:   rejected,
		},
	}

	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		batchIndex := start / p.batchSize

		counts, err := p.catalog.ImportIgnoreDuplicates(ctx, batch)
		if err != nil {
			if p.metrics != nil {
				p.metrics.ObserveImportBatch("failed")
			}
			result.Stats.TotalFailed = len(records) - start
			result.Message = fmt.Sprintf("import aborted at batch %d: %d inserted, %d skipped, %d failed",
				batchIndex+1, result.Stats.TotalInserted, result.Stats.TotalSkipped, result.Stats.TotalFailed)
			p.logger.Error("import batch failed",
				"error", err,
				"batch", batchIndex,
				"inserted_so_far", result.Stats.TotalInserted,
			)
			return result, fmt.Errorf("upload batch %d: %w", batchIndex, err)
		}
		if p.metrics != nil {
			p.metrics.ObserveImportBatch("ok")
		}
		result.Stats.TotalInserted += counts.Inserted
		result.Stats.TotalSkipped += counts.Skipped
		result.CompletedBatches = append(result.CompletedBatches, batchIndex)
		for _, rec := range batch {
			result.UploadedCodes = append(result.UploadedCodes, rec.Code)
		}
		p.logger.Info("import batch uploaded",
			"batch", batchIndex,
			"size", len(batch),
			"inserted", counts.Inserted,
			"skipped", counts.Skipped,
		)
	}

	result.Success = true
	result.Message = fmt.Sprintf("import finished: %d inserted, %d skipped of %d rows",
		result.Stats.TotalInserted, result.Stats.TotalSkipped, result.Stats.TotalProcessed)
	return result, nil
}
