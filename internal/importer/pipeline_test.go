package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

type fakeCatalog struct {
	calls    [][]materials.ImportRecord
	failAt   int
	existing map[string]struct{}
}

func (f *fakeCatalog) ImportIgnoreDuplicates(ctx context.Context, batch []materials.ImportRecord) (materials.ImportCounts, error) {
	if f.failAt > 0 && len(f.calls)+1 == f.failAt {
		return materials.ImportCounts{}, errors.New("connection reset")
	}
	f.calls = append(f.calls, batch)
	counts := materials.ImportCounts{}
	for _, rec := range batch {
		if _, dup := f.existing[rec.Code]; dup {
			counts.Skipped++
			continue
		}
		counts.Inserted++
	}
	return counts, nil
}

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func materialRows(n int) [][]string {
	rows := [][]string{{"Código", "Descrição"}}
	for i := 0; i < n; i++ {
		rows = append(rows, []string{fmt.Sprintf("M-%02d", i), fmt.Sprintf("Material %d", i)})
	}
	return rows
}

func TestSanitizeDescription(t *testing.T) {
	cases := map[string]string{
		"  Poste   de  concreto ": "Poste de concreto",
		"Cabo 10mm":   "Cabo 10mm",
		"Cruzeta\tT\n normal":     "Cruzeta T normal",
		"":                        "",
		"":            "",
		"Conector cúprico":  "Conector cúprico",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeDescription(in), "input %q", in)
	}
}

func TestPrepareSkipsAndDeduplicates(t *testing.T) {
	rows := [][]string{
		{"Código", "Descrição"},
		{"A-1", "Cable"},
		{"B-2", "Bolt"},
		{"A-1", "Cable again"},
		{"", "No code"},
		{"only-one-cell"},
		{"C-3", "     "},
		{"a-1", "Lowercase code is distinct"},
	}

	records, skipped := Prepare(rows)

	require.Equal(t, 4, skipped)
	require.Len(t, records, 3)
	require.Equal(t, "A-1", records[0].Code)
	require.Equal(t, "Cable", records[0].Description)
	require.Equal(t, "B-2", records[1].Code)
	require.Equal(t, "a-1", records[2].Code)
	for _, rec := range records {
		require.Equal(t, DefaultUnit, rec.Unit)
		require.Zero(t, rec.Price)
	}
}

func TestPipelineRejectsGarbage(t *testing.T) {
	p := NewPipeline(&fakeCatalog{}, 2, slog.New(slog.DiscardHandler), nil)

	result, err := p.Run(context.Background(), []byte("not a spreadsheet"))
	require.Error(t, err)
	require.False(t, result.Success)
}

func TestPipelineBatchesSequentially(t *testing.T) {
	catalog := &fakeCatalog{existing: map[string]struct{}{"M-00": {}}}
	p := NewPipeline(catalog, 2, slog.New(slog.DiscardHandler), nil)

	result, err := p.Run(context.Background(), buildWorkbook(t, materialRows(5)))

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, catalog.calls, 3)
	require.Len(t, catalog.calls[0], 2)
	require.Len(t, catalog.calls[2], 1)
	require.Equal(t, []int{0, 1, 2}, result.CompletedBatches)
	require.Equal(t, 5, result.Stats.TotalProcessed)
	require.Equal(t, 4, result.Stats.TotalInserted)
	require.Equal(t, 1, result.Stats.TotalSkipped)
	require.Zero(t, result.Stats.TotalFailed)
	require.Len(t, result.UploadedCodes, 5)
}

func TestPipelineAbortsOnBatchFailure(t *testing.T) {
	catalog := &fakeCatalog{failAt: 2}
	p := NewPipeline(catalog, 2, slog.New(slog.DiscardHandler), nil)

	result, err := p.Run(context.Background(), buildWorkbook(t, materialRows(5)))

	require.Error(t, err)
	require.False(t, result.Success)
	require.Len(t, catalog.calls, 1)
	require.Equal(t, []int{0}, result.CompletedBatches)
	require.Equal(t, 2, result.Stats.TotalInserted)
	require.Equal(t, 3, result.Stats.TotalFailed)
	require.Contains(t, result.Message, "aborted at batch 2")
	require.Len(t, result.UploadedCodes, 2)
}
