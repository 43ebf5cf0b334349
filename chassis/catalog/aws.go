package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/aws/aws-sdk-go/service/glue/glueiface"

	log "github.com/freundallein/lakeflow/chassis/logging"
)

// GlueCatalog implementation on AWS Glue crawlers
type GlueCatalog struct {
	api glueiface.GlueAPI
}

// InitGlueCatalog ...
func InitGlueCatalog(sess client.ConfigProvider) *GlueCatalog {
	return NewGlueCatalog(glue.New(sess))
}

// NewGlueCatalog ...
func NewGlueCatalog(api glueiface.GlueAPI) *GlueCatalog {
	return &GlueCatalog{api: api}
}

// s3Path adds the scheme Glue expects when the stored path has none.
func s3Path(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "s3://" + path
}

func targets(path string) *glue.CrawlerTargets {
	return &glue.CrawlerTargets{
		S3Targets: []*glue.S3Target{{Path: aws.String(s3Path(path))}},
	}
}

// CreateCrawler ...
func (g *GlueCatalog) CreateCrawler(ctx context.Context, crawler Crawler) error {
	_, err := g.api.CreateCrawlerWithContext(ctx, &glue.CreateCrawlerInput{
		Name:         aws.String(crawler.Name),
		Role:         aws.String(crawler.Role),
		DatabaseName: aws.String(crawler.Database),
		Targets:      targets(crawler.TargetPath),
	})
	if err == nil {
		log.WithFields(log.Fields{
			"event":   "create_crawler",
			"crawler": crawler.Name,
		}).Debug(crawler.TargetPath)
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != glue.ErrCodeAlreadyExistsException {
		return err
	}
	_, err = g.api.UpdateCrawlerWithContext(ctx, &glue.UpdateCrawlerInput{
		Name:         aws.String(crawler.Name),
		Role:         aws.String(crawler.Role),
		DatabaseName: aws.String(crawler.Database),
		Targets:      targets(crawler.TargetPath),
	})
	if err != nil {
		return fmt.Errorf("update existing crawler: %w", err)
	}
	log.WithFields(log.Fields{
		"event":   "update_crawler",
		"crawler": crawler.Name,
	}).Debug(crawler.TargetPath)
	return nil
}

// StartCrawler ...
func (g *GlueCatalog) StartCrawler(ctx context.Context, name string) error {
	_, err := g.api.StartCrawlerWithContext(ctx, &glue.StartCrawlerInput{
		Name: aws.String(name),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == glue.ErrCodeCrawlerRunningException {
			return fmt.Errorf("%w: %s", ErrCrawlerRunning, aerr.Message())
		}
		return err
	}
	return nil
}
