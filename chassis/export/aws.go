package export

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	log "github.com/freundallein/lakeflow/chassis/logging"
)

// DynamoExporter implementation on DynamoDB point-in-time export
type DynamoExporter struct {
	api dynamodbiface.DynamoDBAPI
}

// InitDynamoExporter ...
func InitDynamoExporter(sess client.ConfigProvider) *DynamoExporter {
	return NewDynamoExporter(dynamodb.New(sess))
}

// NewDynamoExporter ...
func NewDynamoExporter(api dynamodbiface.DynamoDBAPI) *DynamoExporter {
	return &DynamoExporter{api: api}
}

// ExportTable starts the export and returns without waiting for it.
func (e *DynamoExporter) ExportTable(ctx context.Context, tableARN, bucket string) (*Description, error) {
	out, err := e.api.ExportTableToPointInTimeWithContext(ctx, &dynamodb.ExportTableToPointInTimeInput{
		TableArn: aws.String(tableARN),
		S3Bucket: aws.String(bucket),
	})
	if err != nil {
		return nil, err
	}
	desc := &Description{}
	if out.ExportDescription != nil {
		desc.ExportARN = aws.StringValue(out.ExportDescription.ExportArn)
		desc.Status = aws.StringValue(out.ExportDescription.ExportStatus)
	}
	log.WithFields(log.Fields{
		"event":  "export_table",
		"table":  tableARN,
		"status": desc.Status,
	}).Debug(desc.ExportARN)
	return desc, nil
}
