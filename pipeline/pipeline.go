package pipeline

import (
	"github.com/freundallein/lakeflow/chassis/catalog"
	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/chassis/export"
	"github.com/freundallein/lakeflow/chassis/paramstore"
	"github.com/freundallein/lakeflow/chassis/query"
)

// Clients - service handles shared by the stages of one process
type Clients struct {
	Export  export.Client
	Catalog catalog.Client
	Query   query.Client
	Store   paramstore.Store
}

// New wires every stage from configuration.
func New(appCfg *config.AppConfig, clients Clients) *Dispatcher {
	exporter := NewExporter(ExporterConfig{
		TableARN: appCfg.Export.TableARN,
		Bucket:   appCfg.Export.Bucket,
		Prefix:   appCfg.Export.Prefix,
		ParamKey: appCfg.ParamStore.Key,
	}, clients.Export, clients.Store)
	crawler := NewCrawler(CrawlerConfig{
		Name:     appCfg.Crawler.Name,
		Role:     appCfg.Crawler.RoleARN,
		Database: appCfg.Catalog.Database,
		ParamKey: appCfg.ParamStore.Key,
	}, clients.Catalog, clients.Store)
	reports := NewQueryRunner(QueryConfig{
		Database:       appCfg.Catalog.Database,
		OutputLocation: appCfg.ResultLocation(),
		Workgroup:      appCfg.Query.Workgroup,
		PollInterval:   appCfg.Query.PollInterval,
		MaxAttempts:    appCfg.Query.MaxAttempts,
		MaxWait:        appCfg.Query.MaxWait,
	}, clients.Query)
	return NewDispatcher(exporter, crawler, reports, appCfg.ReportSQL())
}
