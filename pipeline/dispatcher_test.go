package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freundallein/lakeflow/chassis/config"
	"github.com/freundallein/lakeflow/chassis/export"
	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/query"
)

type dispatchFixture struct {
	export  *fakeExport
	catalog *fakeCatalog
	query   *fakeQuery
	store   *memStore
	waits   *countingSleep
	d       *Dispatcher
}

func (f *dispatchFixture) calls() int {
	return f.export.calls + f.catalog.calls() + f.query.calls() + f.store.puts
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	appCfg := config.Default()
	appCfg.Export.Bucket = "myBucket"
	appCfg.Export.TableARN = "arn:aws:dynamodb:ap-northeast-1:123456789012:table/T"
	appCfg.Crawler.Name = "lakeflow-export"
	appCfg.Crawler.RoleARN = "arn:aws:iam::123456789012:role/glue-crawler"
	appCfg.Catalog.Database = "lakeflow"
	appCfg.Catalog.Table = "data"
	appCfg.Query.ResultBucket = "results"
	appCfg.ParamStore.Key = testKey

	f := &dispatchFixture{
		export: &fakeExport{desc: &export.Description{
			ExportARN: "arn:aws:dynamodb:ap-northeast-1:123456789012:table/T/export/01234567890123-abcdef",
		}},
		catalog: &fakeCatalog{},
		query: &fakeQuery{
			id:     "exec-1",
			states: []query.State{query.RUNNING, query.SUCCEEDED},
			result: &query.ResultSet{Columns: []string{"city", "city_count"}, Rows: [][]string{{"Osaka", "2"}}},
		},
		store: newMemStore(),
		waits: &countingSleep{},
	}
	f.d = New(appCfg, Clients{
		Export:  f.export,
		Catalog: f.catalog,
		Query:   f.query,
		Store:   f.store,
	})
	f.d.reports.sleep = f.waits.sleep
	return f
}

func TestDispatcher_StorageNotificationRunsCrawl(t *testing.T) {
	f := newDispatchFixture(t)
	require.NoError(t, f.store.Put(context.Background(), testKey, "myBucket/AWSDynamoDB/x/data/"))
	f.store.puts = 0

	payload := `{"Records":[{"eventSource":"aws:s3","s3":{"bucket":{"name":"myBucket"},"object":{"key":"AWSDynamoDB/x/manifest-files.json"}}}],"eventType":"report"}`
	require.NoError(t, f.d.DispatchPayload(context.Background(), []byte(payload)))

	assert.Len(t, f.catalog.created, 1)
	assert.Len(t, f.catalog.started, 1)
	assert.Empty(t, f.query.requests)
	assert.Equal(t, 0, f.export.calls)
}

func TestDispatcher_LowercaseRecords(t *testing.T) {
	f := newDispatchFixture(t)
	require.NoError(t, f.store.Put(context.Background(), testKey, "myBucket/AWSDynamoDB/x/data/"))

	require.NoError(t, f.d.DispatchPayload(context.Background(), []byte(`{"records":[{}]}`)))
	assert.Len(t, f.catalog.started, 1)
}

func TestDispatcher_ForeignRecordsStillRunCrawl(t *testing.T) {
	for _, payload := range []string{
		`{"Records":[{"s3":{}}],"eventType":5}`,
		`{"Records":[{"eventTime":""}]}`,
		`{"Records":[{"s3":{"object":{"size":"12"}}}]}`,
	} {
		t.Run(payload, func(t *testing.T) {
			f := newDispatchFixture(t)
			require.NoError(t, f.store.Put(context.Background(), testKey, "myBucket/AWSDynamoDB/x/data/"))

			require.NoError(t, f.d.DispatchPayload(context.Background(), []byte(payload)))
			assert.Len(t, f.catalog.started, 1)
			assert.Empty(t, f.query.requests)
		})
	}
}

func TestDispatcher_UnknownEventIsNoop(t *testing.T) {
	for _, payload := range []string{`{"eventType":"bogus"}`, `{}`, `{"Records":[]}`, `{"eventType":5}`, `{"eventType":null}`} {
		t.Run(payload, func(t *testing.T) {
			f := newDispatchFixture(t)
			require.NoError(t, f.d.DispatchPayload(context.Background(), []byte(payload)))
			assert.Equal(t, 0, f.calls())
		})
	}
}

func TestDispatcher_Export(t *testing.T) {
	for _, eventType := range []string{"exportTable", "export"} {
		t.Run(eventType, func(t *testing.T) {
			f := newDispatchFixture(t)
			require.NoError(t, f.d.DispatchPayload(context.Background(), []byte(`{"eventType":"`+eventType+`"}`)))

			assert.Equal(t, 1, f.export.calls)
			param, err := f.store.Get(context.Background(), testKey)
			require.NoError(t, err)
			assert.Equal(t, "myBucket/AWSDynamoDB/01234567890123-abcdef/data/", param.Value)
			assert.Equal(t, 0, f.catalog.calls())
		})
	}
}

func TestDispatcher_ExportThenCrawl(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	require.NoError(t, f.d.Dispatch(ctx, protocol.Command(protocol.StageExport)))
	require.NoError(t, f.d.Dispatch(ctx, protocol.Command(protocol.StageRunCrawler)))

	require.Len(t, f.catalog.created, 1)
	assert.Equal(t, "myBucket/AWSDynamoDB/01234567890123-abcdef/data/", f.catalog.created[0].TargetPath)
}

func TestDispatcher_RunCrawlerWithoutExport(t *testing.T) {
	f := newDispatchFixture(t)

	err := f.d.Dispatch(context.Background(), protocol.Command(protocol.StageRunCrawler))
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Equal(t, 0, f.catalog.calls())
}

func TestDispatcher_Report(t *testing.T) {
	f := newDispatchFixture(t)

	require.NoError(t, f.d.Dispatch(context.Background(), protocol.Command(protocol.StageReport)))
	require.Len(t, f.query.requests, 1)
	assert.Equal(t,
		`SELECT Item.city.S as city, COUNT (Item.city.S) as city_count FROM "lakeflow".data GROUP BY Item.city.S`,
		f.query.requests[0].Text)
	assert.Equal(t, "s3://results", f.query.requests[0].OutputLocation)
	assert.Len(t, f.waits.waits, 1)
	assert.Equal(t, 1, f.query.resultCalls)
}

func TestDispatcher_ReportWithoutTable(t *testing.T) {
	f := newDispatchFixture(t)
	f.d.reportSQL = ""

	err := f.d.Dispatch(context.Background(), protocol.Command(protocol.StageReport))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, f.query.requests)
}

func TestDispatcher_MalformedPayload(t *testing.T) {
	f := newDispatchFixture(t)

	assert.Error(t, f.d.DispatchPayload(context.Background(), []byte(`[1,2]`)))
	assert.ErrorIs(t, f.d.DispatchPayload(context.Background(), nil), protocol.ErrEmptyPayload)
	assert.Equal(t, 0, f.calls())
}

func TestDispatcher_NilTrigger(t *testing.T) {
	f := newDispatchFixture(t)
	assert.Error(t, f.d.Dispatch(context.Background(), nil))
}
