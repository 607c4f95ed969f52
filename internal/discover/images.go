package discover

import (
	"context"
	"os"

	"github.com/mmcdole/foodpin/internal/domain"
)

// Image returns the image of a feed record.
// A cached file is read from disk; otherwise the record is fetched with only
// its image key and the asset downloaded and cached. Failures are logged and
// yield a placeholder result with a nil error.
func (f *Feed) Image(ctx context.Context, id domain.RecordID) (domain.ImageResult, error) {
	if path, ok := f.images.Get(id); ok {
		data, err := os.ReadFile(path)
		if err == nil {
			return domain.ImageResult{ID: id, Path: path, Data: data, FromCache: true}, nil
		}
		// File went missing (cache dir cleared); refetch
		f.logger.Warn("cached image unreadable", "id", id, "path", path, "error", err)
		f.images.Remove(id)
	}

	results, err := f.db.FetchRecords(ctx, []domain.RecordID{id}, []string{domain.FieldImage})
	if err != nil {
		f.logger.Error("failed to fetch image record", "id", id, "error", err)
		return f.placeholderFor(id), nil
	}
	if len(results) == 0 || results[0].Err != nil {
		var rerr error = domain.ErrRecordNotFound
		if len(results) > 0 {
			rerr = results[0].Err
		}
		f.logger.Error("failed to fetch image record", "id", id, "error", rerr)
		return f.placeholderFor(id), nil
	}

	path, err := f.download(ctx, results[0].Record)
	if err != nil {
		f.logger.Error("failed to download image", "id", id, "error", err)
		return f.placeholderFor(id), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		f.logger.Error("failed to read downloaded image", "id", id, "path", path, "error", err)
		return f.placeholderFor(id), nil
	}

	return domain.ImageResult{ID: id, Path: path, Data: data}, nil
}

// Prefetch downloads images of records not yet cached, looking records up in
// batches. Returns the number of images now cached. Per-record failures are logged.
func (f *Feed) Prefetch(ctx context.Context, ids []domain.RecordID, onProgress domain.ProgressFunc) (int, error) {
	var missing []domain.RecordID
	for _, id := range ids {
		if _, ok := f.images.Get(id); !ok {
			missing = append(missing, id)
		}
	}

	cached := len(ids) - len(missing)
	done := 0
	for start := 0; start < len(missing); start += prefetchBatchSize {
		select {
		case <-ctx.Done():
			return cached, ctx.Err()
		default:
		}

		end := min(start+prefetchBatchSize, len(missing))
		results, err := f.db.FetchRecords(ctx, missing[start:end], []string{domain.FieldImage})
		if err != nil {
			f.logger.Error("failed to prefetch images", "error", err)
			return cached, err
		}

		for _, res := range results {
			done++
			if res.Err != nil {
				f.logger.Warn("image record unavailable", "id", res.ID, "error", res.Err)
			} else if _, err := f.download(ctx, res.Record); err != nil {
				f.logger.Warn("failed to prefetch image", "id", res.ID, "error", err)
			} else {
				cached++
			}
			if onProgress != nil {
				onProgress(done, len(missing))
			}
		}
	}

	f.logger.Debug("prefetched images", "requested", len(ids), "cached", cached)
	return cached, nil
}

// prefetchBatchSize bounds a single lookup request
const prefetchBatchSize = 50

// download stores the record's image asset and caches its path
func (f *Feed) download(ctx context.Context, rec *domain.Record) (string, error) {
	asset := rec.Asset(domain.FieldImage)
	if asset == nil {
		return "", domain.ErrAssetMissing
	}
	path, err := f.db.DownloadAsset(ctx, asset)
	if err != nil {
		return "", err
	}
	f.images.Set(rec.ID, path)
	return path, nil
}

func (f *Feed) placeholderFor(id domain.RecordID) domain.ImageResult {
	return domain.ImageResult{ID: id, Data: f.placeholder, Placeholder: true}
}
