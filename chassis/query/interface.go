package query

import "context"

// State - query execution state as reported by the engine
type State string

const (
	QUEUED    State = "QUEUED"
	RUNNING   State = "RUNNING"
	SUCCEEDED State = "SUCCEEDED"
	FAILED    State = "FAILED"
	CANCELLED State = "CANCELLED"
)

// Pending reports whether the execution may still change state.
func (s State) Pending() bool {
	return s == QUEUED || s == RUNNING
}

// Request - one query submission
type Request struct {
	Text           string
	Database       string
	OutputLocation string
	Workgroup      string
}

// Execution - polled view of one query run
type Execution struct {
	ID             string
	State          State
	Reason         string
	OutputLocation string
}

// ResultSet - rows of a finished execution, every page joined
type ResultSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Client interface for the query engine
type Client interface {
	StartQuery(ctx context.Context, req Request) (string, error)
	GetExecution(ctx context.Context, executionID string) (*Execution, error)
	GetResults(ctx context.Context, executionID string) (*ResultSet, error)
}
