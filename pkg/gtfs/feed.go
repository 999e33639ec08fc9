package gtfs

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Load reads the feed at source, an http(s) URL or a file path, and parses
// its bus departures. Parsed results are cached in cacheDir keyed by the
// archive's fingerprint.
func Load(ctx context.Context, source, cacheDir string, logger *slog.Logger) (*ParseResult, error) {
	start := time.Now()

	var (
		reader *zip.Reader
		data   []byte
		err    error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		reader, data, err = NewDownloader(source, logger).Download(ctx)
	} else {
		reader, data, err = ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	cacheDir = ParsedCacheDir(cacheDir)
	fingerprint := DataFingerprint(data)

	if result, path, err := LoadParsedResult(cacheDir, fingerprint); err == nil {
		logger.Info("loaded parsed GTFS from cache",
			"path", path,
			"stops", len(result.Stops),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, nil
	}

	result, err := NewParser(logger).Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse gtfs: %w", err)
	}

	if path, err := SaveParsedResult(cacheDir, fingerprint, result); err != nil {
		logger.Warn("failed to cache parsed GTFS", "error", err)
	} else {
		logger.Debug("cached parsed GTFS", "path", path)
	}
	return result, nil
}
