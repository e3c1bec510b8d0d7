// Package icons caches achievement icon images on disk and rewrites remote
// icon URLs in achievement records to locally cached paths.
package icons

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Cache is the icon disk-cache collaborator. Only http(s) URLs are cached;
// local and relative paths pass through untouched upstream.
type Cache interface {
	// IsCached reports whether the icon for url is already on disk.
	IsCached(url, scopeID string) bool
	// Path returns the local cache path the url maps to.
	Path(url, scopeID string) string
	// GetOrDownload returns the local path for url, downloading it first
	// if needed.
	GetOrDownload(ctx context.Context, url, scopeID string) (string, error)
}

// DiskCache stores icons under root/<scopeID>/<sha1(url)><ext>.
type DiskCache struct {
	root   string
	client *http.Client
}

// NewDiskCache creates an icon cache rooted at dir.
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{root: dir, client: http.DefaultClient}
}

func (c *DiskCache) Path(url, scopeID string) string {
	sum := sha1.Sum([]byte(url))
	name := hex.EncodeToString(sum[:])
	if ext := path.Ext(stripQuery(url)); ext != "" && len(ext) <= 5 {
		name += ext
	}
	if scopeID == "" {
		return filepath.Join(c.root, name)
	}
	return filepath.Join(c.root, scopeID, name)
}

func (c *DiskCache) IsCached(url, scopeID string) bool {
	_, err := os.Stat(c.Path(url, scopeID))
	return err == nil
}

func (c *DiskCache) GetOrDownload(ctx context.Context, url, scopeID string) (string, error) {
	dest := c.Path(url, scopeID)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := c.download(ctx, url, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *DiskCache) download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http error: %s", resp.Status)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dest)
}

// IsRemote reports whether an icon path needs downloading.
func IsRemote(p string) bool {
	l := strings.ToLower(p)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func stripQuery(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
