package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/freundallein/lakeflow/chassis/logging"

	"github.com/freundallein/lakeflow/chassis/metrics"
	"github.com/freundallein/lakeflow/chassis/query"
)

const defaultPollInterval = time.Second

// QueryConfig ...
type QueryConfig struct {
	Database       string
	OutputLocation string
	Workgroup      string
	PollInterval   time.Duration
	// MaxAttempts caps state polls, 0 means no cap.
	MaxAttempts int
	// MaxWait caps time spent polling, 0 means no cap.
	MaxWait time.Duration
}

// QueryRunner submits a query and blocks until its result is available.
type QueryRunner struct {
	cfg    QueryConfig
	client query.Client
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewQueryRunner ...
func NewQueryRunner(cfg QueryConfig, client query.Client) *QueryRunner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &QueryRunner{
		cfg:    cfg,
		client: client,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Submit starts the query and returns its execution id.
func (r *QueryRunner) Submit(ctx context.Context, text string) (string, error) {
	err := requireSettings(
		"GLUE_DATABASE_NAME", r.cfg.Database,
		"QUERY_RESULT_S3_BUCKET", r.cfg.OutputLocation,
	)
	if err != nil {
		return "", err
	}
	id, err := r.client.StartQuery(ctx, query.Request{
		Text:           text,
		Database:       r.cfg.Database,
		OutputLocation: r.cfg.OutputLocation,
		Workgroup:      r.cfg.Workgroup,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrQuerySubmission, err)
	}
	log.WithFields(log.Fields{
		"event":       "query_submitted",
		"executionID": id,
		"database":    r.cfg.Database,
	}).Info("query submitted")
	return id, nil
}

// AwaitCompletion polls the execution until it leaves QUEUED/RUNNING.
// One interval is waited between polls, never after the last one.
func (r *QueryRunner) AwaitCompletion(ctx context.Context, executionID string) (*query.Execution, error) {
	started := r.now()
	for attempt := 1; ; attempt++ {
		exec, err := r.client.GetExecution(ctx, executionID)
		if err != nil {
			return nil, fmt.Errorf("get query execution %s: %w", executionID, err)
		}
		metrics.IncQueryPoll()
		log.WithFields(log.Fields{
			"event":       "query_poll",
			"executionID": executionID,
			"attempt":     attempt,
		}).Debug(exec.State)
		if !exec.State.Pending() {
			metrics.IncQueryTerminal(string(exec.State))
			return exec, nil
		}
		if r.cfg.MaxAttempts > 0 && attempt >= r.cfg.MaxAttempts {
			return exec, fmt.Errorf("%w: %s still %s after %d polls", ErrQueryTimeout, executionID, exec.State, attempt)
		}
		if r.cfg.MaxWait > 0 && r.now().Sub(started) >= r.cfg.MaxWait {
			return exec, fmt.Errorf("%w: %s still %s after %s", ErrQueryTimeout, executionID, exec.State, r.cfg.MaxWait)
		}
		if err := r.sleep(ctx, r.cfg.PollInterval); err != nil {
			return exec, err
		}
	}
}

// FetchResults reads the result set without looking at the execution state.
func (r *QueryRunner) FetchResults(ctx context.Context, executionID string) (*query.ResultSet, error) {
	result, err := r.client.GetResults(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("get query results %s: %w", executionID, err)
	}
	return result, nil
}

// RunReport submits queryText, waits for it and returns its rows.
// Only a SUCCEEDED execution has its results fetched.
func (r *QueryRunner) RunReport(ctx context.Context, queryText string) (*query.ResultSet, error) {
	id, err := r.Submit(ctx, queryText)
	if err != nil {
		return nil, err
	}
	exec, err := r.AwaitCompletion(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec.State != query.SUCCEEDED {
		return nil, fmt.Errorf("%w: %s ended %s: %s", ErrQueryExecutionFailed, id, exec.State, exec.Reason)
	}
	log.WithFields(log.Fields{
		"event":          "query_succeeded",
		"executionID":    id,
		"outputLocation": exec.OutputLocation,
	}).Info("fetching results")
	return r.FetchResults(ctx, id)
}
