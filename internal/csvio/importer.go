package csvio

import (
	"context"
	"fmt"

	"stockroom/internal/model"

	"github.com/rs/zerolog"
)

// DefaultChunkSize is the number of rows written per upsert.
const DefaultChunkSize = 200

// Upserter writes one chunk of products atomically, matching on sku.
type Upserter interface {
	UpsertChunk(ctx context.Context, rows []model.ProductInput) error
}

// ProgressFunc is called after each committed chunk.
type ProgressFunc func(done, total int)

// Importer writes product payloads in fixed-size chunks, one after the
// other.
type Importer struct {
	store     Upserter
	chunkSize int
	logger    zerolog.Logger
}

// NewImporter creates an importer. A chunkSize below 1 uses DefaultChunkSize.
func NewImporter(store Upserter, chunkSize int, logger zerolog.Logger) *Importer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Importer{
		store:     store,
		chunkSize: chunkSize,
		logger:    logger.With().Str("component", "importer").Logger(),
	}
}

// Import upserts rows chunk by chunk. Each chunk is awaited before the next
// starts and is never retried. The first failing chunk stops the import;
// chunks already written stay committed and are reported in the result,
// which is returned alongside the error.
func (i *Importer) Import(ctx context.Context, rows []model.ProductInput, progress ProgressFunc) (*model.ImportResult, error) {
	result := &model.ImportResult{Total: len(rows)}
	if len(rows) == 0 {
		return result, model.ErrNoNamedRows
	}

	for start := 0; start < len(rows); start += i.chunkSize {
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			return result, err
		}

		end := min(start+i.chunkSize, len(rows))
		chunk := rows[start:end]

		if err := i.store.UpsertChunk(ctx, chunk); err != nil {
			i.logger.Warn().
				Err(err).
				Int("chunk", result.Chunks+1).
				Int("committed", result.Committed).
				Int("total", result.Total).
				Msg("import chunk failed, stopping")
			result.Error = err.Error()
			return result, fmt.Errorf("import stopped after %d of %d rows: %w", result.Committed, result.Total, err)
		}

		result.Chunks++
		result.Committed = end
		if progress != nil {
			progress(result.Committed, result.Total)
		}
	}

	i.logger.Info().
		Int("rows", result.Committed).
		Int("chunks", result.Chunks).
		Msg("import finished")

	return result, nil
}
