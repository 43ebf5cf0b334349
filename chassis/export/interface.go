package export

import "context"

// Description - what the export service reports right after accepting an export
type Description struct {
	ExportARN string
	Status    string
}

// Client interface for table snapshot exports
type Client interface {
	ExportTable(ctx context.Context, tableARN, bucket string) (*Description, error)
}
