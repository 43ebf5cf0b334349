package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	defaultExportPrefix = "AWSDynamoDB"
	defaultReportSQL    = `SELECT Item.city.S as city, COUNT (Item.city.S) as city_count FROM "%s".%s GROUP BY Item.city.S`
)

// AWSConfig ...
type AWSConfig struct {
	Region             string `yaml:"region" env:"AWS_REGION"`
	Endpoint           string `yaml:"endpoint" env:"AWS_ENDPOINT_URL"`
	CredentialsFile    string `yaml:"credentialsFile" env:"AWS_SHARED_CREDENTIALS_FILE"`
	CredentialsProfile string `yaml:"credentialsProfile" env:"AWS_PROFILE"`
	Retries            int    `yaml:"retries" env:"AWS_MAX_RETRIES"`
}

// QueueConfig ...
type QueueConfig struct {
	Name              string `yaml:"name" env:"TRIGGER_QUEUE_NAME"`
	URL               string `yaml:"url" env:"TRIGGER_QUEUE_URL"`
	WaitSeconds       int64  `yaml:"waitSeconds" env:"TRIGGER_QUEUE_WAIT_SECONDS"`
	VisibilityTimeout int64  `yaml:"visibilityTimeout" env:"TRIGGER_QUEUE_VISIBILITY_TIMEOUT"`
}

// AppConfig ...
type AppConfig struct {
	AWS    AWSConfig `yaml:"aws"`
	Export struct {
		Bucket   string `yaml:"bucket" env:"TABLE_EXPORT_S3_BUCKET"`
		TableARN string `yaml:"tableArn" env:"DYNAMO_TABLE_ARN"`
		Prefix   string `yaml:"prefix" env:"TABLE_EXPORT_S3_PREFIX"`
	} `yaml:"export"`
	Crawler struct {
		Name    string `yaml:"name" env:"GLUE_CRAWLER_NAME"`
		RoleARN string `yaml:"roleArn" env:"GLUE_CRAWLER_ROLE_ARN"`
	} `yaml:"crawler"`
	Catalog struct {
		Database string `yaml:"database" env:"GLUE_DATABASE_NAME"`
		Table    string `yaml:"table" env:"GLUE_TABLE_NAME"`
	} `yaml:"catalog"`
	Query struct {
		ResultBucket string        `yaml:"resultBucket" env:"QUERY_RESULT_S3_BUCKET"`
		ResultPrefix string        `yaml:"resultPrefix" env:"QUERY_RESULT_S3_PREFIX"`
		Workgroup    string        `yaml:"workgroup" env:"ATHENA_WORKGROUP"`
		SQL          string        `yaml:"sql" env:"REPORT_SQL"`
		PollInterval time.Duration `yaml:"pollInterval" env:"QUERY_POLL_INTERVAL"`
		MaxAttempts  int           `yaml:"maxAttempts" env:"QUERY_MAX_ATTEMPTS"`
		MaxWait      time.Duration `yaml:"maxWait" env:"QUERY_MAX_WAIT"`
	} `yaml:"query"`
	ParamStore struct {
		Backend string `yaml:"backend" env:"PARAM_STORE_BACKEND"`
		Key     string `yaml:"key" env:"SSM_S3_EXPORT_ARN_PATH"`
		DSN     string `yaml:"dsn" env:"PARAM_STORE_DSN"`
	} `yaml:"paramStore"`
	Worker struct {
		Queuesrc    QueueConfig `yaml:"queuesrc"`
		Workers     int         `yaml:"workers" env:"WORKERS"`
		MetricsAddr string      `yaml:"metricsAddr" env:"METRICS_ADDR"`
	} `yaml:"worker"`
	Schedule struct {
		Export  string `yaml:"export" env:"SCHEDULE_EXPORT"`
		Crawler string `yaml:"runCrawler" env:"SCHEDULE_RUN_CRAWLER"`
		Report  string `yaml:"report" env:"SCHEDULE_REPORT"`
	} `yaml:"schedule"`
	LogLevel string `yaml:"loglevel" env:"LOG_LEVEL"`
}

// Default returns the configuration every source is layered on top of.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.AWS.Region = "ap-northeast-1"
	cfg.AWS.Retries = 3
	cfg.Export.Prefix = defaultExportPrefix
	cfg.Query.PollInterval = time.Second
	cfg.Query.MaxAttempts = 600
	cfg.ParamStore.Backend = "ssm"
	cfg.Worker.Workers = 1
	cfg.Worker.MetricsAddr = ":2112"
	cfg.Worker.Queuesrc.WaitSeconds = 20
	cfg.Worker.Queuesrc.VisibilityTimeout = 900
	cfg.LogLevel = "info"
	return cfg
}

// Read loads defaults, then the YAML file named by CFG_PATH (if any),
// then a local .env file (if any), then environment variables.
// Nothing is validated here: missing settings are reported by the stage that needs them.
func Read() (*AppConfig, error) {
	cfg := Default()
	if filename := os.Getenv("CFG_PATH"); filename != "" {
		buff, err := ioutil.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(buff, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ReportSQL returns the aggregation query run by the report stage.
// An empty string means the catalog database or table is not configured.
func (c *AppConfig) ReportSQL() string {
	if c.Query.SQL != "" {
		return c.Query.SQL
	}
	if c.Catalog.Database == "" || c.Catalog.Table == "" {
		return ""
	}
	return fmt.Sprintf(defaultReportSQL, c.Catalog.Database, c.Catalog.Table)
}

// ResultLocation returns the s3:// URI Athena writes query output to.
func (c *AppConfig) ResultLocation() string {
	if c.Query.ResultBucket == "" {
		return ""
	}
	if c.Query.ResultPrefix == "" {
		return "s3://" + c.Query.ResultBucket
	}
	return fmt.Sprintf("s3://%s/%s", c.Query.ResultBucket, c.Query.ResultPrefix)
}
