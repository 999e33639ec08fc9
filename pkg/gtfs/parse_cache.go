package gtfs

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ParsedCacheDir returns dir, or a directory under the system temp dir
// when dir is empty.
func ParsedCacheDir(dir string) string {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "routeiq-gtfs-cache")
	}
	return dir
}

// DataFingerprint identifies a feed archive by the sha256 of its bytes. A
// republished feed gets a new fingerprint and therefore a fresh parse.
func DataFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// departureCachePath names the cached bus stops and departure tables of
// one feed.
func departureCachePath(cacheDir, fingerprint string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("gtfs_bus_%s.gob.gz", fingerprint))
}

// LoadParsedResult reads the bus stops and departure tables cached for a
// feed fingerprint. It also returns the cache path for logging.
func LoadParsedResult(cacheDir, fingerprint string) (*ParseResult, string, error) {
	path := departureCachePath(cacheDir, fingerprint)
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, path, err
	}
	defer zr.Close()

	var result ParseResult
	if err := gob.NewDecoder(zr).Decode(&result); err != nil {
		return nil, path, err
	}
	if err := result.validate(); err != nil {
		return nil, path, fmt.Errorf("cached departures: %w", err)
	}
	return &result, path, nil
}

// validate checks that every cached stop carries its departure tables
func (r *ParseResult) validate() error {
	if r.Stops == nil || r.Tables == nil {
		return errors.New("stops or tables missing")
	}
	for id := range r.Stops {
		if r.Tables[id] == nil {
			return fmt.Errorf("stop %s has no departure tables", id)
		}
	}
	return nil
}

// SaveParsedResult writes the bus stops and departure tables for a feed
// fingerprint. The file appears atomically, so a concurrent reader sees
// either the previous state or the complete tables.
func SaveParsedResult(cacheDir, fingerprint string, result *ParseResult) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}

	path := departureCachePath(cacheDir, fingerprint)
	tmp, err := os.CreateTemp(cacheDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}

	zw, err := gzip.NewWriterLevel(tmp, gzip.BestSpeed)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	err = errors.Join(gob.NewEncoder(zw).Encode(result), zw.Close(), tmp.Close())
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save departures: %w", err)
	}
	return path, nil
}
