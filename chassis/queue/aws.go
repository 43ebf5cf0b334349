package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	log "github.com/freundallein/lakeflow/chassis/logging"
)

const defaultWaitSeconds = 20

// AWSQueue implementation
type AWSQueue struct {
	QueueURL string
	cfg      Config
	queue    sqsiface.SQSAPI
}

// InitAWSQueue ...
func InitAWSQueue(sess client.ConfigProvider, cfg Config) *AWSQueue {
	return NewAWSQueue(sqs.New(sess), cfg)
}

// NewAWSQueue ...
func NewAWSQueue(api sqsiface.SQSAPI, cfg Config) *AWSQueue {
	URL := cfg.URL
	if cfg.Name != "" {
		URL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.URL, "/"), cfg.Name)
	}
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = defaultWaitSeconds
	}
	return &AWSQueue{
		queue:    api,
		cfg:      cfg,
		QueueURL: URL,
	}
}

// SendMessage ...
func (q *AWSQueue) SendMessage(ctx context.Context, message string) error {
	msg := &sqs.SendMessageInput{
		MessageBody: aws.String(message),
		QueueUrl:    aws.String(q.QueueURL),
	}
	sendResponse, err := q.queue.SendMessageWithContext(ctx, msg)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event": "send_message",
		"queue": "aws_sqs",
	}).Debug(aws.StringValue(sendResponse.MessageId))
	return nil
}

// ReceiveMessage ...
func (q *AWSQueue) ReceiveMessage(ctx context.Context) (*RecvMessage, error) {
	receivedMsg := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.QueueURL),
		MaxNumberOfMessages: aws.Int64(1),
		WaitTimeSeconds:     aws.Int64(q.cfg.WaitSeconds),
	}
	if q.cfg.VisibilityTimeout > 0 {
		receivedMsg.VisibilityTimeout = aws.Int64(q.cfg.VisibilityTimeout)
	}
	receiveResponse, err := q.queue.ReceiveMessageWithContext(ctx, receivedMsg)
	if err != nil {
		return nil, err
	}
	if len(receiveResponse.Messages) == 0 {
		return nil, ErrNoMessage
	}
	m := receiveResponse.Messages[0]
	msg := &RecvMessage{
		ID:      aws.StringValue(m.MessageId),
		Body:    aws.StringValue(m.Body),
		Handler: aws.StringValue(m.ReceiptHandle),
	}
	log.WithFields(log.Fields{
		"event": "receive_message",
		"queue": "aws_sqs",
	}).Debug(msg.ID)
	return msg, nil
}

// Acknowledge ...
func (q *AWSQueue) Acknowledge(ctx context.Context, message *RecvMessage) error {
	deleteMsg := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: aws.String(message.Handler),
	}
	if _, err := q.queue.DeleteMessageWithContext(ctx, deleteMsg); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event": "delete_message",
		"queue": "aws_sqs",
	}).Debug(message.ID)
	return nil
}
