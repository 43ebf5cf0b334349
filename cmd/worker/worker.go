package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/bootstrap"
	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/queue"
	"github.com/freundallein/lakeflow/worker"
)

func main() {
	appCfg, err := config.Read()
	if err != nil {
		log.WithFields(log.Fields{
			"event": "config_read_failed",
		}).Fatal(err)
	}
	log.Init("worker", appCfg.LogLevel)
	log.WithFields(log.Fields{
		"event": "init_service",
	}).Info("service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	rt, err := bootstrap.New(ctx, appCfg)
	if err != nil {
		log.WithFields(log.Fields{
			"event": "init_pipeline_failed",
		}).Fatal(err)
	}
	defer rt.Close()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	var group sync.WaitGroup
	if appCfg.Worker.Queuesrc.URL != "" {
		// Inbound triggers: S3 notifications or stage commands
		queueClient := queue.InitAWSQueue(rt.Session, queue.Config{
			Name:              appCfg.Worker.Queuesrc.Name,
			URL:               appCfg.Worker.Queuesrc.URL,
			WaitSeconds:       appCfg.Worker.Queuesrc.WaitSeconds,
			VisibilityTimeout: appCfg.Worker.Queuesrc.VisibilityTimeout,
		})
		worker.Run(ctx, &worker.Config{
			QueueSrc:   queueClient,
			Dispatcher: rt.Dispatcher,
			Workers:    appCfg.Worker.Workers,
		}, &group)
	}

	schedule, err := worker.NewSchedule(ctx, rt.Dispatcher, map[protocol.Stage]string{
		protocol.StageExport:     appCfg.Schedule.Export,
		protocol.StageRunCrawler: appCfg.Schedule.Crawler,
		protocol.StageReport:     appCfg.Schedule.Report,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"event": "init_schedule_failed",
		}).Fatal(err)
	}
	schedule.Start()

	srv := &http.Server{
		Addr:              appCfg.Worker.MetricsAddr,
		Handler:           worker.NewRouter(rt.Dispatcher),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen: ", err)
		}
	}()
	<-done
	log.WithFields(log.Fields{
		"event": "ctx_cancel",
	}).Info("received syscall")
	cancel()
	schedule.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server Shutdown Failed: ", err)
	}
	group.Wait()
}
