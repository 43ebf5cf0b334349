package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/awssession"
	"github.com/freundallein/lakeflow/chassis/catalog"
	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/chassis/export"
	"github.com/freundallein/lakeflow/chassis/paramstore"
	"github.com/freundallein/lakeflow/chassis/query"
	"github.com/freundallein/lakeflow/pipeline"
)

// Runtime - everything an entry point needs to dispatch triggers
type Runtime struct {
	Session    *session.Session
	Dispatcher *pipeline.Dispatcher
	closers    []func()
}

// Close releases the resources opened by New.
func (r *Runtime) Close() {
	for _, closeFn := range r.closers {
		closeFn()
	}
}

// New builds the AWS clients and the configured parameter store, then wires the pipeline.
func New(ctx context.Context, appCfg *config.AppConfig) (*Runtime, error) {
	sess, err := awssession.New(appCfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	rt := &Runtime{Session: sess}
	store, err := newStore(ctx, appCfg, sess, rt)
	if err != nil {
		return nil, err
	}
	rt.Dispatcher = pipeline.New(appCfg, pipeline.Clients{
		Export:  export.InitDynamoExporter(sess),
		Catalog: catalog.InitGlueCatalog(sess),
		Query:   query.InitAthenaClient(sess),
		Store:   store,
	})
	log.WithFields(log.Fields{
		"event":      "init_pipeline",
		"region":     appCfg.AWS.Region,
		"paramStore": appCfg.ParamStore.Backend,
	}).Debug("pipeline wired")
	return rt, nil
}

func newStore(ctx context.Context, appCfg *config.AppConfig, sess *session.Session, rt *Runtime) (paramstore.Store, error) {
	switch appCfg.ParamStore.Backend {
	case "", "ssm":
		return paramstore.InitSSMStore(sess), nil
	case "postgres":
		store, err := paramstore.InitPGStore(ctx, appCfg.ParamStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres parameter store: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown parameter store backend %q", appCfg.ParamStore.Backend)
	}
}
