package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/queue"
)

const receiveBackoff = 5 * time.Second

// Dispatcher - what workers, the schedule and the HTTP API hand triggers to
type Dispatcher interface {
	Dispatch(ctx context.Context, trigger protocol.Trigger) error
}

// Config ...
type Config struct {
	QueueSrc   queue.Client
	Dispatcher Dispatcher
	Workers    int
}

// handle dispatches one message and acknowledges it on success.
// A failed stage stays on the queue for redelivery, an undecodable message is dropped.
func handle(ctx context.Context, cfg *Config, workerID int, msg *queue.RecvMessage) {
	trigger, err := protocol.Decode([]byte(msg.Body))
	if err != nil {
		log.WithFields(log.Fields{
			"event":     "received_broken_message",
			"worker":    workerID,
			"messageID": msg.ID,
		}).Error(err)
	} else if err := cfg.Dispatcher.Dispatch(ctx, trigger); err != nil {
		log.WithFields(log.Fields{
			"event":     "dispatch_failed",
			"worker":    workerID,
			"messageID": msg.ID,
		}).Error(err)
		return
	}
	err = cfg.QueueSrc.Acknowledge(ctx, msg)
	if err != nil {
		log.WithFields(log.Fields{
			"event":     "ack_message_failed",
			"worker":    workerID,
			"messageID": msg.ID,
		}).Error(err)
	}
}

func worker(ctx context.Context, cfg *Config, workerID int, group *sync.WaitGroup) {
	defer group.Done()
	cliSrc := cfg.QueueSrc
	for {
		select {
		case <-ctx.Done():
			log.WithFields(log.Fields{
				"event":  "ctx_canceled",
				"worker": workerID,
			}).Info("exit goroutine")
			return
		default:
			msg, err := cliSrc.ReceiveMessage(ctx)
			if err != nil {
				if errors.Is(err, queue.ErrNoMessage) || ctx.Err() != nil {
					continue
				}
				log.WithFields(log.Fields{
					"event":  "receive_failed",
					"worker": workerID,
				}).Error(err)
				select {
				case <-ctx.Done():
				case <-time.After(receiveBackoff):
				}
				continue
			}
			log.WithFields(log.Fields{
				"event":     "receive_message",
				"worker":    workerID,
				"messageID": msg.ID,
			}).Info("trigger received")
			handle(ctx, cfg, workerID, msg)
		}
	}
}

// Run ...
func Run(ctx context.Context, cfg *Config, group *sync.WaitGroup) {
	log.WithFields(log.Fields{
		"event": "start_service",
	}).Info("starting ", cfg.Workers, " workers")
	for wrk := 1; wrk <= cfg.Workers; wrk++ {
		group.Add(1)
		go worker(ctx, cfg, wrk, group)
	}
}
