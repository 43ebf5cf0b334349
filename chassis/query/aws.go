package query

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"

	log "github.com/freundallein/lakeflow/chassis/logging"
)

// AthenaClient implementation on Amazon Athena
type AthenaClient struct {
	api athenaiface.AthenaAPI
}

// InitAthenaClient ...
func InitAthenaClient(sess client.ConfigProvider) *AthenaClient {
	return NewAthenaClient(athena.New(sess))
}

// NewAthenaClient ...
func NewAthenaClient(api athenaiface.AthenaAPI) *AthenaClient {
	return &AthenaClient{api: api}
}

// StartQuery ...
func (c *AthenaClient) StartQuery(ctx context.Context, req Request) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(req.Text),
		QueryExecutionContext: &athena.QueryExecutionContext{
			Database: aws.String(req.Database),
		},
		ResultConfiguration: &athena.ResultConfiguration{
			OutputLocation: aws.String(req.OutputLocation),
		},
	}
	if req.Workgroup != "" {
		input.WorkGroup = aws.String(req.Workgroup)
	}
	out, err := c.api.StartQueryExecutionWithContext(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.QueryExecutionId), nil
}

// GetExecution ...
func (c *AthenaClient) GetExecution(ctx context.Context, executionID string) (*Execution, error) {
	out, err := c.api.GetQueryExecutionWithContext(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return nil, err
	}
	exec := &Execution{ID: executionID}
	if qe := out.QueryExecution; qe != nil {
		if qe.Status != nil {
			exec.State = State(aws.StringValue(qe.Status.State))
			exec.Reason = aws.StringValue(qe.Status.StateChangeReason)
		}
		if qe.ResultConfiguration != nil {
			exec.OutputLocation = aws.StringValue(qe.ResultConfiguration.OutputLocation)
		}
	}
	return exec, nil
}

// GetResults reads every result page.
func (c *AthenaClient) GetResults(ctx context.Context, executionID string) (*ResultSet, error) {
	result := &ResultSet{Rows: [][]string{}}
	pages := 0
	err := c.api.GetQueryResultsPagesWithContext(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(executionID),
	}, func(page *athena.GetQueryResultsOutput, lastPage bool) bool {
		pages++
		if page.ResultSet == nil {
			return true
		}
		if result.Columns == nil && page.ResultSet.ResultSetMetadata != nil {
			for _, col := range page.ResultSet.ResultSetMetadata.ColumnInfo {
				result.Columns = append(result.Columns, aws.StringValue(col.Name))
			}
		}
		for _, row := range page.ResultSet.Rows {
			values := make([]string, 0, len(row.Data))
			for _, datum := range row.Data {
				values = append(values, aws.StringValue(datum.VarCharValue))
			}
			result.Rows = append(result.Rows, values)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"event":       "get_query_results",
		"executionID": executionID,
		"pages":       pages,
	}).Debug("fetched ", len(result.Rows), " rows")
	return result, nil
}
