package pipeline

import (
	"context"
	"errors"
	"fmt"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/catalog"
	"github.com/freundallein/lakeflow/chassis/paramstore"
)

// CrawlerConfig ...
type CrawlerConfig struct {
	Name     string
	Role     string
	Database string
	ParamKey string
}

// Crawler points the catalog crawler at the latest export and starts it.
// Crawl completion is never observed here.
type Crawler struct {
	cfg     CrawlerConfig
	catalog catalog.Client
	store   paramstore.Store
}

// NewCrawler ...
func NewCrawler(cfg CrawlerConfig, client catalog.Client, store paramstore.Store) *Crawler {
	return &Crawler{cfg: cfg, catalog: client, store: store}
}

// ReadTargetPath returns the path stored by the last export.
func (c *Crawler) ReadTargetPath(ctx context.Context) (string, error) {
	if err := requireSettings("SSM_S3_EXPORT_ARN_PATH", c.cfg.ParamKey); err != nil {
		return "", err
	}
	param, err := c.store.Get(ctx, c.cfg.ParamKey)
	if err != nil {
		if errors.Is(err, paramstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s was never written", ErrMissingParameter, c.cfg.ParamKey)
		}
		return "", fmt.Errorf("%w: %w", ErrMissingParameter, err)
	}
	if param.Value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingParameter, c.cfg.ParamKey)
	}
	log.WithFields(log.Fields{
		"event":   "read_target_path",
		"key":     c.cfg.ParamKey,
		"version": param.Version,
	}).Debug(param.Value)
	return param.Value, nil
}

// EnsureCrawler declares the crawler for path; safe to repeat.
func (c *Crawler) EnsureCrawler(ctx context.Context, path string) error {
	err := requireSettings(
		"GLUE_CRAWLER_NAME", c.cfg.Name,
		"GLUE_CRAWLER_ROLE_ARN", c.cfg.Role,
		"GLUE_DATABASE_NAME", c.cfg.Database,
	)
	if err != nil {
		return err
	}
	return c.catalog.CreateCrawler(ctx, catalog.Crawler{
		Name:       c.cfg.Name,
		Role:       c.cfg.Role,
		TargetPath: path,
		Database:   c.cfg.Database,
	})
}

// StartCrawler starts the crawl without waiting for it.
func (c *Crawler) StartCrawler(ctx context.Context) error {
	if err := requireSettings("GLUE_CRAWLER_NAME", c.cfg.Name); err != nil {
		return err
	}
	if err := c.catalog.StartCrawler(ctx, c.cfg.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrCrawlerStart, err)
	}
	return nil
}

// RunCrawl ...
func (c *Crawler) RunCrawl(ctx context.Context) error {
	path, err := c.ReadTargetPath(ctx)
	if err != nil {
		return err
	}
	if err := c.EnsureCrawler(ctx, path); err != nil {
		return fmt.Errorf("ensure crawler: %w", err)
	}
	if err := c.StartCrawler(ctx); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event":   "crawler_started",
		"crawler": c.cfg.Name,
	}).Info("crawling ", path)
	return nil
}
