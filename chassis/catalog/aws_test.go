package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/aws/aws-sdk-go/service/glue/glueiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGlue struct {
	glueiface.GlueAPI
	existing  map[string]*glue.CrawlerTargets
	creates   int
	updates   int
	startErr  error
	createErr error
}

func (f *fakeGlue) CreateCrawlerWithContext(_ aws.Context, in *glue.CreateCrawlerInput, _ ...request.Option) (*glue.CreateCrawlerOutput, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.existing[*in.Name]; ok {
		return nil, awserr.New(glue.ErrCodeAlreadyExistsException, "crawler exists", nil)
	}
	f.existing[*in.Name] = in.Targets
	return &glue.CreateCrawlerOutput{}, nil
}

func (f *fakeGlue) UpdateCrawlerWithContext(_ aws.Context, in *glue.UpdateCrawlerInput, _ ...request.Option) (*glue.UpdateCrawlerOutput, error) {
	f.updates++
	f.existing[*in.Name] = in.Targets
	return &glue.UpdateCrawlerOutput{}, nil
}

func (f *fakeGlue) StartCrawlerWithContext(_ aws.Context, _ *glue.StartCrawlerInput, _ ...request.Option) (*glue.StartCrawlerOutput, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &glue.StartCrawlerOutput{}, nil
}

func testCrawler(path string) Crawler {
	return Crawler{
		Name:       "lakeflow-export",
		Role:       "arn:aws:iam::123456789012:role/glue-crawler",
		TargetPath: path,
		Database:   "lakeflow",
	}
}

func TestGlueCatalog_CreateCrawler_Idempotent(t *testing.T) {
	ctx := context.Background()
	api := &fakeGlue{existing: map[string]*glue.CrawlerTargets{}}
	cat := NewGlueCatalog(api)

	require.NoError(t, cat.CreateCrawler(ctx, testCrawler("myBucket/AWSDynamoDB/one/data/")))
	require.NoError(t, cat.CreateCrawler(ctx, testCrawler("myBucket/AWSDynamoDB/two/data/")))

	assert.Equal(t, 2, api.creates)
	assert.Equal(t, 1, api.updates)
	targets := api.existing["lakeflow-export"]
	require.Len(t, targets.S3Targets, 1)
	assert.Equal(t, "s3://myBucket/AWSDynamoDB/two/data/", aws.StringValue(targets.S3Targets[0].Path))
}

func TestGlueCatalog_CreateCrawler_OtherError(t *testing.T) {
	cause := awserr.New(glue.ErrCodeInvalidInputException, "bad role", nil)
	api := &fakeGlue{existing: map[string]*glue.CrawlerTargets{}, createErr: cause}

	err := NewGlueCatalog(api).CreateCrawler(context.Background(), testCrawler("b/p/"))
	assert.Equal(t, cause, err)
	assert.Equal(t, 0, api.updates)
}

func TestGlueCatalog_StartCrawler(t *testing.T) {
	api := &fakeGlue{startErr: awserr.New(glue.ErrCodeCrawlerRunningException, "crawler is running", nil)}
	err := NewGlueCatalog(api).StartCrawler(context.Background(), "lakeflow-export")
	assert.ErrorIs(t, err, ErrCrawlerRunning)

	api.startErr = errors.New("boom")
	err = NewGlueCatalog(api).StartCrawler(context.Background(), "lakeflow-export")
	assert.NotErrorIs(t, err, ErrCrawlerRunning)

	api.startErr = nil
	assert.NoError(t, NewGlueCatalog(api).StartCrawler(context.Background(), "lakeflow-export"))
}

func TestS3Path(t *testing.T) {
	assert.Equal(t, "s3://b/p/", s3Path("b/p/"))
	assert.Equal(t, "s3://b/p/", s3Path("s3://b/p/"))
}
