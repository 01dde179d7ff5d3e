package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HFDatasetRepo is the Institutional Books repository on HuggingFace
	HFDatasetRepo = "instdin/institutional-books-1.0"

	// HFResolveURL is formatted with the repository and file name
	HFResolveURL = "https://huggingface.co/datasets/%s/resolve/main/%s"

	DefaultCacheDir = "~/.cache/huggingface/datasets"
)

// DownloadConfig configures dataset downloading
type DownloadConfig struct {
	CacheDir      string
	ForceDownload bool
	// Token is a HuggingFace access token; the dataset is gated
	Token string
	// BaseURL overrides HFResolveURL, mainly for tests
	BaseURL    string
	HTTPClient *http.Client
}

// Downloader fetches dataset shards into a local cache
type Downloader struct {
	config DownloadConfig
}

// NewDownloader creates a new dataset downloader
func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if strings.HasPrefix(config.CacheDir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			config.CacheDir = filepath.Join(home, config.CacheDir[1:])
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = HFResolveURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &Downloader{config: config}
}

// CachePath returns where a shard is stored locally
func (d *Downloader) CachePath(filename string) string {
	return filepath.Join(d.config.CacheDir, HFDatasetRepo, filepath.FromSlash(filename))
}

// Download returns the cached path of filename, fetching it first unless
// it is already cached
func (d *Downloader) Download(ctx context.Context, filename string) (string, error) {
	cachedPath := d.CachePath(filename)
	if err := os.MkdirAll(filepath.Dir(cachedPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached dataset", "path", cachedPath)
			return cachedPath, nil
		}
	}

	url := fmt.Sprintf(d.config.BaseURL, HFDatasetRepo, filename)
	slog.Info("Downloading dataset from HuggingFace", "repo", HFDatasetRepo, "file", filename)

	if err := d.downloadFile(ctx, url, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}

	slog.Info("Dataset downloaded", "path", cachedPath)
	return cachedPath, nil
}

// downloadFile writes to a temporary file and renames it into place so a
// partial download is never mistaken for a cached shard
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}
	slog.Debug("Download finished", "bytes", written)

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}
