package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
)

// ArchiveImpl implements domain.Archiver by querying the trade store for old
// records, serializing them to JSONL, and uploading the result to S3. Rows
// are deleted from the primary store only after the upload succeeds, so a
// failed upload leaves the store untouched.
type ArchiveImpl struct {
	writer domain.BlobWriter
	trades domain.TradeStore
	logger *slog.Logger
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, trades domain.TradeStore, logger *slog.Logger) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		trades: trades,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

var _ domain.Archiver = (*ArchiveImpl)(nil)

// ArchiveTrades moves all trades before the cutoff into cold storage at
// archive/trades/YYYY-MM.jsonl and deletes them from the primary store. It
// returns the number of archived rows.
func (a *ArchiveImpl) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	path := archivePath("trades", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	deleted, err := a.trades.DeleteBefore(ctx, before)
	if err != nil {
		// The archive object exists but the rows remain; the next run will
		// re-archive and retry the delete.
		return int64(len(recs)), fmt.Errorf("s3blob: archive trades delete: %w", err)
	}

	a.logger.Info("trades archived",
		slog.String("path", path),
		slog.Int("archived", len(recs)),
		slog.Int64("deleted", deleted),
		slog.Time("before", before),
	)
	return int64(len(recs)), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time, e.g. archive/trades/2025-01.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
