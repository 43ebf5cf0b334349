package awssession

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/freundallein/lakeflow/chassis/config"
)

// New builds the one session every AWS client of an invocation shares.
// Without a credentials file the default chain is used (env, shared profile, task/lambda role).
func New(cfg config.AWSConfig) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region:     aws.String(cfg.Region),
		MaxRetries: aws.Int(cfg.Retries),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.CredentialsFile != "" {
		awsCfg.Credentials = credentials.NewSharedCredentials(cfg.CredentialsFile, cfg.CredentialsProfile)
	}
	return session.NewSessionWithOptions(session.Options{
		Config:            *awsCfg,
		Profile:           cfg.CredentialsProfile,
		SharedConfigState: session.SharedConfigEnable,
	})
}
