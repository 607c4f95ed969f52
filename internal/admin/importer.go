package admin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/foodpin/internal/cloudserver"
	"github.com/mmcdole/foodpin/internal/domain"
)

// RecordWriter saves records to the record database
type RecordWriter interface {
	SaveRecords(ctx context.Context, records []*domain.Record) ([]*domain.Record, error)
}

// Result summarizes an import
type Result struct {
	Saved  int
	Failed int
}

// Importer uploads restaurant images and saves restaurant records
type Importer struct {
	records RecordWriter
	assets  cloudserver.AssetStore
	logger  *slog.Logger
}

// NewImporter creates an importer. assets may be nil, in which case rows
// with an image fail.
func NewImporter(records RecordWriter, assets cloudserver.AssetStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{records: records, assets: assets, logger: logger}
}

// Import saves every row. A failing row is logged and counted, the rest continue.
func (im *Importer) Import(ctx context.Context, rows []Row, onProgress domain.ProgressFunc) (Result, error) {
	var res Result
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := im.importRow(ctx, row); err != nil {
			im.logger.Error("failed to import row", "line", row.Line, "name", row.Name, "error", err)
			res.Failed++
		} else {
			res.Saved++
		}

		if onProgress != nil {
			onProgress(i+1, len(rows))
		}
	}
	return res, nil
}

func (im *Importer) importRow(ctx context.Context, row Row) error {
	rec := &domain.Record{
		Type: domain.RecordTypeRestaurant,
		Fields: map[string]any{
			domain.FieldName:     row.Name,
			domain.FieldType:     row.Type,
			domain.FieldLocation: row.Location,
			domain.FieldPhone:    row.Phone,
		},
	}

	if row.ImagePath != "" {
		asset, err := im.upload(ctx, row.ImagePath)
		if err != nil {
			return err
		}
		rec.Fields[domain.FieldImage] = asset
	}

	if _, err := im.records.SaveRecords(ctx, []*domain.Record{rec}); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// upload stores the file under a content-addressed key
func (im *Importer) upload(ctx context.Context, path string) (*domain.Asset, error) {
	if im.assets == nil {
		return nil, fmt.Errorf("no asset store configured for %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	checksum := hex.EncodeToString(h.Sum(nil))

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".jpg"
	}
	key := "restaurants/" + checksum + ext

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := im.assets.Put(ctx, key, f, size, contentType); err != nil {
		return nil, err
	}
	im.logger.Debug("uploaded image", "path", path, "key", key, "size", size)

	return &domain.Asset{ObjectKey: key, Checksum: checksum, Size: size}, nil
}
