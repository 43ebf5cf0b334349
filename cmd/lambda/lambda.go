package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/bootstrap"
	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/pipeline"
)

// handler returns true on success; any stage error fails the invocation.
func handler(dispatcher *pipeline.Dispatcher) func(ctx context.Context, payload json.RawMessage) (bool, error) {
	return func(ctx context.Context, payload json.RawMessage) (bool, error) {
		if err := dispatcher.DispatchPayload(ctx, payload); err != nil {
			return false, err
		}
		return true, nil
	}
}

func main() {
	appCfg, err := config.Read()
	if err != nil {
		log.WithFields(log.Fields{
			"event": "config_read_failed",
		}).Fatal(err)
	}
	log.Init("lambda", appCfg.LogLevel)
	rt, err := bootstrap.New(context.Background(), appCfg)
	if err != nil {
		log.WithFields(log.Fields{
			"event": "init_pipeline_failed",
		}).Fatal(err)
	}
	defer rt.Close()
	lambda.Start(handler(rt.Dispatcher))
}
