package queue

import (
	"context"
	"errors"
)

// ErrNoMessage - long poll finished without a message
var ErrNoMessage = errors.New("no message received")

// Config - unified configuration for queue service
type Config struct {
	Name string
	URL  string

	//AWS specified
	WaitSeconds       int64
	VisibilityTimeout int64
}

// RecvMessage unified presentation for queue message
type RecvMessage struct {
	ID      string
	Body    string
	Handler string
}

// Client interface for trigger queue interaction (SQS Based)
type Client interface {
	SendMessage(ctx context.Context, message string) error
	ReceiveMessage(ctx context.Context) (*RecvMessage, error)
	Acknowledge(ctx context.Context, message *RecvMessage) error
}
