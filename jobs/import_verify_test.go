package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

type fakeCatalogReader struct {
	known map[string]struct{}
	err   error
	asked []string
}

func (f *fakeCatalogReader) GetByCodes(ctx context.Context, codes []string) ([]materials.Material, error) {
	f.asked = codes
	if f.err != nil {
		return nil, f.err
	}
	var out []materials.Material
	for _, code := range codes {
		if _, ok := f.known[code]; ok {
			out = append(out, materials.Material{Code: code})
		}
	}
	return out, nil
}

func TestImportVerifyHandle(t *testing.T) {
	reader := &fakeCatalogReader{known: map[string]struct{}{"A-1": {}, "B-2": {}}}
	job := NewImportVerifyJob(reader, slog.New(slog.DiscardHandler))

	task, err := NewImportVerifyTask(ImportVerifyPayload{RunID: "run-1", Codes: []string{"A-1", "B-2", "C-3"}})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"A-1", "B-2", "C-3"}, reader.asked)
}

func TestImportVerifyHandleEmptyPayload(t *testing.T) {
	reader := &fakeCatalogReader{}
	job := NewImportVerifyJob(reader, slog.New(slog.DiscardHandler))

	task, err := NewImportVerifyTask(ImportVerifyPayload{RunID: "run-1"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Nil(t, reader.asked)
}

func TestImportVerifyHandleBadPayload(t *testing.T) {
	job := NewImportVerifyJob(&fakeCatalogReader{}, slog.New(slog.DiscardHandler))

	err := job.Handle(context.Background(), asynq.NewTask(TaskImportVerify, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestImportVerifyHandleQueryError(t *testing.T) {
	boom := errors.New("db down")
	job := NewImportVerifyJob(&fakeCatalogReader{err: boom}, slog.New(slog.DiscardHandler))

	task, err := NewImportVerifyTask(ImportVerifyPayload{RunID: "run-1", Codes: []string{"A-1"}})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}
