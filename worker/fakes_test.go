package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/freundallein/lakeflow/chassis/protocol"
	"github.com/freundallein/lakeflow/chassis/queue"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	triggers []protocol.Trigger
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, trigger protocol.Trigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return f.err
}

func (f *fakeDispatcher) received() []protocol.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Trigger(nil), f.triggers...)
}

type fakeQueue struct {
	mu    sync.Mutex
	inbox []*queue.RecvMessage
	acked []string
}

func (f *fakeQueue) SendMessage(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, &queue.RecvMessage{ID: message, Body: message, Handler: message})
	return nil
}

func (f *fakeQueue) ReceiveMessage(ctx context.Context) (*queue.RecvMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbox) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, queue.ErrNoMessage
	}
	msg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return msg, nil
}

func (f *fakeQueue) Acknowledge(_ context.Context, message *queue.RecvMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.Handler == "" {
		return errors.New("no receipt handle")
	}
	f.acked = append(f.acked, message.ID)
	return nil
}

func (f *fakeQueue) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}
