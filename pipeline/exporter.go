package pipeline

import (
	"context"
	"fmt"
	"strings"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/export"
	"github.com/freundallein/lakeflow/chassis/paramstore"
)

// ExporterConfig ...
type ExporterConfig struct {
	TableARN string
	Bucket   string
	Prefix   string
	ParamKey string
}

// ExportHandle - one accepted export and where its data will land
type ExportHandle struct {
	ExportID   string
	ExportARN  string
	TargetPath string
}

// Exporter starts table snapshots and records where the crawler has to look.
type Exporter struct {
	cfg    ExporterConfig
	client export.Client
	store  paramstore.Store
}

// NewExporter ...
func NewExporter(cfg ExporterConfig, client export.Client, store paramstore.Store) *Exporter {
	return &Exporter{cfg: cfg, client: client, store: store}
}

// ExportID returns the last "/" segment of an export ARN.
// An ARN without "/" is returned whole, an empty one stays empty.
func ExportID(exportARN string) string {
	return exportARN[strings.LastIndex(exportARN, "/")+1:]
}

// TargetPath builds <bucket>/<prefix>/<exportID>/data/.
func TargetPath(bucket, prefix, exportARN string) string {
	return fmt.Sprintf("%s/%s/%s/data/", bucket, prefix, ExportID(exportARN))
}

// ExportSnapshot starts the export and overwrites the stored crawl target.
// It returns once the export is accepted; the data arrives later.
func (e *Exporter) ExportSnapshot(ctx context.Context) (*ExportHandle, error) {
	err := requireSettings(
		"DYNAMO_TABLE_ARN", e.cfg.TableARN,
		"TABLE_EXPORT_S3_BUCKET", e.cfg.Bucket,
		"SSM_S3_EXPORT_ARN_PATH", e.cfg.ParamKey,
	)
	if err != nil {
		return nil, err
	}
	desc, err := e.client.ExportTable(ctx, e.cfg.TableARN, e.cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportInitiation, err)
	}
	if desc == nil {
		desc = &export.Description{}
	}
	handle := &ExportHandle{
		ExportID:   ExportID(desc.ExportARN),
		ExportARN:  desc.ExportARN,
		TargetPath: TargetPath(e.cfg.Bucket, e.cfg.Prefix, desc.ExportARN),
	}
	if handle.ExportID == "" {
		log.WithFields(log.Fields{
			"event": "export_arn_malformed",
			"arn":   desc.ExportARN,
		}).Warn("export id missing, crawl target degrades to ", handle.TargetPath)
	}
	if err := e.store.Put(ctx, e.cfg.ParamKey, handle.TargetPath); err != nil {
		return nil, fmt.Errorf("save crawl target: %w", err)
	}
	log.WithFields(log.Fields{
		"event":    "export_started",
		"exportID": handle.ExportID,
		"status":   desc.Status,
	}).Info("crawl target saved: ", handle.TargetPath)
	return handle, nil
}
