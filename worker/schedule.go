package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/protocol"
)

// Schedule emits stage commands on cron specs.
type Schedule struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	entries    map[protocol.Stage]cron.EntryID
}

// NewSchedule registers one cron entry per non-empty spec.
// A tick that arrives while the same stage is still running is skipped.
func NewSchedule(ctx context.Context, dispatcher Dispatcher, specs map[protocol.Stage]string) (*Schedule, error) {
	s := &Schedule{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		dispatcher: dispatcher,
		entries:    make(map[protocol.Stage]cron.EntryID),
	}
	for stage, spec := range specs {
		if spec == "" {
			continue
		}
		stage := stage
		entryID, err := s.cron.AddFunc(spec, func() {
			s.fire(ctx, stage)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", spec, stage, err)
		}
		s.entries[stage] = entryID
		log.WithFields(log.Fields{
			"event":    "stage_scheduled",
			"stage":    stage,
			"schedule": spec,
		}).Info("scheduled stage")
	}
	log.WithFields(log.Fields{
		"event":  "init_schedule",
		"stages": s.Len(),
	}).Info("schedule ready")
	return s, nil
}

func (s *Schedule) fire(ctx context.Context, stage protocol.Stage) {
	if err := s.dispatcher.Dispatch(ctx, protocol.Command(stage)); err != nil {
		log.WithFields(log.Fields{
			"event": "scheduled_stage_failed",
			"stage": stage,
		}).Error(err)
	}
}

// Len returns the number of registered stages.
func (s *Schedule) Len() int {
	return len(s.entries)
}

// Start ...
func (s *Schedule) Start() {
	s.cron.Start()
}

// Stop waits for running stages to return.
func (s *Schedule) Stop() {
	<-s.cron.Stop().Done()
}
