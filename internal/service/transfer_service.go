package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"stockroom/internal/csvio"
	"stockroom/internal/events"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/storage"

	"github.com/rs/zerolog"
)

// PreviewRows is the number of rows shown before an import.
const PreviewRows = 10

// SnapshotPrefix is the storage folder for scheduled exports.
const SnapshotPrefix = "exports/"

// transferService implements TransferService.
type transferService struct {
	productRepo repository.ProductRepository
	importer    *csvio.Importer
	store       storage.Store
	exportLimit int
	bus         *events.Bus
	now         func() time.Time
	logger      zerolog.Logger
}

// NewTransferService creates a new CSV import/export service.
func NewTransferService(
	productRepo repository.ProductRepository,
	importer *csvio.Importer,
	store storage.Store,
	exportLimit int,
	bus *events.Bus,
	logger zerolog.Logger,
) TransferService {
	if exportLimit < 1 {
		exportLimit = csvio.DefaultExportLimit
	}
	return &transferService{
		productRepo: productRepo,
		importer:    importer,
		store:       store,
		exportLimit: exportLimit,
		bus:         bus,
		now:         time.Now,
		logger:      logger.With().Str("service", "transfer").Logger(),
	}
}

// Preview parses a CSV and returns its headers, the suggested mapping and
// the first rows.
func (s *transferService) Preview(ctx context.Context, r io.Reader) (*model.ImportPreview, error) {
	table, err := s.read(r)
	if err != nil {
		return nil, err
	}

	rows := table.Rows
	if len(rows) > PreviewRows {
		rows = rows[:PreviewRows]
	}

	return &model.ImportPreview{
		Headers: table.Headers,
		Mapping: csvio.SuggestMapping(table.Headers),
		Rows:    rows,
		Total:   len(table.Rows),
	}, nil
}

// Import maps a CSV with the given mapping, or the suggested one when nil,
// and upserts the named rows in sequential chunks. A partial result is
// returned with the error when a chunk fails.
func (s *transferService) Import(ctx context.Context, actor model.Actor, r io.Reader, mapping map[string]string) (*model.ImportResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	table, err := s.read(r)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		mapping = csvio.SuggestMapping(table.Headers)
	}

	rows, err := csvio.Map(table, mapping)
	if err != nil {
		return nil, err
	}

	skipped := len(table.Rows) - len(rows)
	result, err := s.importer.Import(ctx, rows, func(done, total int) {
		s.logger.Debug().Int("done", done).Int("total", total).Msg("import progress")
	})
	if result != nil {
		result.Skipped = skipped
		if result.Committed > 0 {
			s.bus.PublishProductsChanged("IMPORT", events.SourceService)
		}
	}

	if err != nil {
		return result, err
	}

	s.logger.Info().
		Str("actor", actor.ID.String()).
		Int("imported", result.Committed).
		Int("skipped", skipped).
		Msg("csv import completed")

	return result, nil
}

// Export writes up to the export limit of products as CSV.
func (s *transferService) Export(ctx context.Context, w io.Writer) (int, error) {
	products, err := s.productRepo.Export(ctx, s.exportLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products for export")
		return 0, fmt.Errorf("failed to export products: %w", err)
	}

	if err := csvio.WriteProducts(w, products); err != nil {
		return 0, err
	}

	if len(products) == s.exportLimit {
		s.logger.Warn().Int("limit", s.exportLimit).Msg("export reached the row limit and was truncated")
	}
	return len(products), nil
}

// Snapshot stores today's export under exports/.
func (s *transferService) Snapshot(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	count, err := s.Export(ctx, &buf)
	if err != nil {
		return "", err
	}

	key := SnapshotPrefix + csvio.ExportFilename(s.now())
	url, err := s.store.Put(ctx, key, &buf, csvio.ContentType)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store export snapshot")
		return "", fmt.Errorf("failed to store export snapshot: %w", err)
	}

	s.logger.Info().Str("key", key).Int("rows", count).Msg("export snapshot stored")
	return url, nil
}

func (s *transferService) read(r io.Reader) (*csvio.Table, error) {
	table, err := csvio.ReadCSV(r)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse csv upload")
		return nil, model.ErrInvalidCSV
	}
	if len(table.Rows) == 0 {
		return nil, model.ErrNoCSVRows
	}
	return table, nil
}
