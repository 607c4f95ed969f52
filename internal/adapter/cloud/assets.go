package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mmcdole/foodpin/internal/domain"
)

// DownloadAsset stores the asset file below the asset directory and returns its path.
// An existing file of the expected size is reused without a request.
func (c *Client) DownloadAsset(ctx context.Context, asset *domain.Asset) (string, error) {
	if asset == nil || asset.DownloadURL == "" {
		return "", domain.ErrAssetMissing
	}

	dest, err := c.assetPath(asset)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 && (asset.Size == 0 || info.Size() == asset.Size) {
		c.logger.Debug("asset already on disk", "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Error("asset download failed", "error", err)
		return "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset download: unexpected status code: %d", resp.StatusCode)
	}

	// Write to a temp file first so a partial download never looks complete
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	if asset.Size > 0 && n != asset.Size {
		return "", fmt.Errorf("asset size mismatch: got %d bytes, want %d", n, asset.Size)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to store asset: %w", err)
	}

	c.logger.Debug("asset downloaded", "path", dest, "bytes", n)
	asset.FileURL = dest
	return dest, nil
}

// assetPath derives a stable file name from the checksum, or from the URL
// without its (expiring) query string
func (c *Client) assetPath(asset *domain.Asset) (string, error) {
	if c.assetDir == "" {
		return "", fmt.Errorf("no asset directory configured")
	}

	u, err := url.Parse(asset.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("invalid asset URL: %w", err)
	}

	name := sanitizeName(asset.Checksum)
	if name == "" {
		sum := sha256.Sum256([]byte(u.Host + u.Path))
		name = hex.EncodeToString(sum[:16])
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}

	return filepath.Join(c.assetDir, name+ext), nil
}

// sanitizeName keeps characters that are safe in file names on every platform
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '+' || r == '/' || r == '=':
			b.WriteRune('_')
		}
	}
	return b.String()
}
