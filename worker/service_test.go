package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/queue"
)

func TestHandle_AcknowledgesOnSuccess(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{}
	cfg := &Config{QueueSrc: q, Dispatcher: d, Workers: 1}

	handle(context.Background(), cfg, 1, &queue.RecvMessage{ID: "m-1", Body: `{"eventType":"report"}`, Handler: "rh-1"})

	assert.Equal(t, []protocol.Trigger{protocol.Command(protocol.StageReport)}, d.received())
	assert.Equal(t, []string{"m-1"}, q.ackedIDs())
}

func TestHandle_KeepsFailedStage(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{err: errors.New("crawler start failed")}
	cfg := &Config{QueueSrc: q, Dispatcher: d, Workers: 1}

	handle(context.Background(), cfg, 1, &queue.RecvMessage{ID: "m-1", Body: `{"eventType":"runCrawler"}`, Handler: "rh-1"})

	assert.Len(t, d.received(), 1)
	assert.Empty(t, q.ackedIDs())
}

func TestHandle_DropsBrokenMessage(t *testing.T) {
	q := &fakeQueue{}
	d := &fakeDispatcher{}
	cfg := &Config{QueueSrc: q, Dispatcher: d, Workers: 1}

	handle(context.Background(), cfg, 1, &queue.RecvMessage{ID: "m-1", Body: `not json`, Handler: "rh-1"})

	assert.Empty(t, d.received())
	assert.Equal(t, []string{"m-1"}, q.ackedIDs())
}

func TestRun_ConsumesUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := &fakeQueue{}
	require.NoError(t, q.SendMessage(ctx, `{"Records":[{"eventSource":"aws:s3"}]}`))
	require.NoError(t, q.SendMessage(ctx, `{"eventType":"exportTable"}`))
	d := &fakeDispatcher{}

	var group sync.WaitGroup
	Run(ctx, &Config{QueueSrc: q, Dispatcher: d, Workers: 1}, &group)

	require.Eventually(t, func() bool {
		return len(q.ackedIDs()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	group.Wait()

	triggers := d.received()
	require.Len(t, triggers, 2)
	assert.IsType(t, protocol.StorageNotification{}, triggers[0])
	assert.Equal(t, protocol.Command(protocol.StageExport), triggers[1])
}
