package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/metrics"
	"github.com/freundallein/lakeflow/chassis/protocol"
)

// Dispatcher routes one trigger to one stage.
type Dispatcher struct {
	exporter  *Exporter
	crawler   *Crawler
	reports   *QueryRunner
	reportSQL string
}

// NewDispatcher ...
func NewDispatcher(exporter *Exporter, crawler *Crawler, reports *QueryRunner, reportSQL string) *Dispatcher {
	return &Dispatcher{
		exporter:  exporter,
		crawler:   crawler,
		reports:   reports,
		reportSQL: reportSQL,
	}
}

// DispatchPayload decodes a raw trigger and dispatches it.
func (d *Dispatcher) DispatchPayload(ctx context.Context, payload []byte) error {
	trigger, err := protocol.Decode(payload)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, trigger)
}

// Dispatch runs the stage the trigger asks for.
// Storage notifications always run the crawl; unknown commands are a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger protocol.Trigger) error {
	switch t := trigger.(type) {
	case protocol.StorageNotification:
		log.WithFields(log.Fields{
			"event": "receive_trigger",
		}).Info(t)
		return d.run(ctx, "crawl", d.crawler.RunCrawl)
	case protocol.StageCommand:
		log.WithFields(log.Fields{
			"event": "receive_trigger",
		}).Info(t)
		switch t.Stage {
		case protocol.StageExport:
			return d.run(ctx, "export", d.export)
		case protocol.StageRunCrawler:
			return d.run(ctx, "crawl", d.crawler.RunCrawl)
		case protocol.StageReport:
			return d.run(ctx, "report", d.report)
		default:
			log.WithFields(log.Fields{
				"event":     "unsupported_event",
				"eventType": t.Raw,
			}).Info("nothing to do")
			return nil
		}
	default:
		return fmt.Errorf("unsupported trigger %T", trigger)
	}
}

func (d *Dispatcher) run(ctx context.Context, stage string, fn func(context.Context) error) error {
	started := time.Now()
	log.WithFields(log.Fields{
		"event": "stage_start",
		"stage": stage,
	}).Info("starting ", stage)
	err := fn(ctx)
	metrics.ObserveStage(stage, started, err)
	if err != nil {
		log.WithFields(log.Fields{
			"event": "stage_failed",
			"stage": stage,
		}).Error(err)
		return err
	}
	log.WithFields(log.Fields{
		"event":   "stage_done",
		"stage":   stage,
		"elapsed": time.Since(started).String(),
	}).Info(stage, " finished")
	return nil
}

func (d *Dispatcher) export(ctx context.Context) error {
	_, err := d.exporter.ExportSnapshot(ctx)
	return err
}

func (d *Dispatcher) report(ctx context.Context) error {
	if err := requireSettings("GLUE_DATABASE_NAME/GLUE_TABLE_NAME", d.reportSQL); err != nil {
		return err
	}
	result, err := d.reports.RunReport(ctx, d.reportSQL)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	log.WithFields(log.Fields{
		"event": "report_result",
		"rows":  len(result.Rows),
	}).Info(string(raw))
	return nil
}
