package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// archive stores the fetched body under <prefix>/<host>/<sha256>.html and
// returns its URI. Archiving never fails a scrape.
func (s *Scraper) archive(ctx context.Context, pageURL string, body []byte, logger *zap.Logger) string {
	if s.deps.BlobStore == nil {
		return ""
	}
	digest, err := s.deps.Hasher.Hash(body)
	if err != nil {
		logger.Warn("archive hash failed", zap.Error(err))
		return ""
	}
	path := buildArchivePath(s.cfg.ArchivePrefix, pageURL, digest)
	uri, err := s.deps.BlobStore.PutObject(ctx, path, s.cfg.ContentType, bytes.NewReader(body))
	if err != nil {
		logger.Warn("archive write failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	logger.Debug("page archived", zap.String("uri", uri))
	return uri
}

func buildArchivePath(prefix, pageURL, digest string) string {
	host := "unknown"
	if u, err := url.Parse(pageURL); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", host, digest)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, host, digest)
}
