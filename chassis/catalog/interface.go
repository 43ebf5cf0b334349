package catalog

import (
	"context"
	"errors"
)

// ErrCrawlerRunning - start was rejected because a crawl is in progress
var ErrCrawlerRunning = errors.New("crawler already running")

// Crawler - declaration of the crawl job
type Crawler struct {
	Name       string
	Role       string
	TargetPath string
	Database   string
}

// Client interface for the metadata catalog
type Client interface {
	// CreateCrawler declares the crawler; calling it again repoints the existing one.
	CreateCrawler(ctx context.Context, crawler Crawler) error
	StartCrawler(ctx context.Context, name string) error
}
