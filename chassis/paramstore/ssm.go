package paramstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	log "github.com/freundallein/lakeflow/chassis/logging"
)

// SSMStore implementation backed by SSM Parameter Store
type SSMStore struct {
	api ssmiface.SSMAPI
}

// InitSSMStore ...
func InitSSMStore(sess client.ConfigProvider) *SSMStore {
	return NewSSMStore(ssm.New(sess))
}

// NewSSMStore ...
func NewSSMStore(api ssmiface.SSMAPI) *SSMStore {
	return &SSMStore{api: api}
}

// Put ...
func (s *SSMStore) Put(ctx context.Context, key, value string) error {
	out, err := s.api.PutParameterWithContext(ctx, &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(value),
		Type:      aws.String(ssm.ParameterTypeString),
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("put parameter %s: %w", key, err)
	}
	log.WithFields(log.Fields{
		"event":   "put_parameter",
		"store":   "aws_ssm",
		"key":     key,
		"version": aws.Int64Value(out.Version),
	}).Debug(value)
	return nil
}

// Get ...
func (s *SSMStore) Get(ctx context.Context, key string) (*Parameter, error) {
	out, err := s.api.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name: aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == ssm.ErrCodeParameterNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get parameter %s: %w", key, err)
	}
	if out.Parameter == nil {
		return nil, ErrNotFound
	}
	return &Parameter{
		Name:    key,
		Value:   aws.StringValue(out.Parameter.Value),
		Version: aws.Int64Value(out.Parameter.Version),
	}, nil
}
