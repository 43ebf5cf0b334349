package pipeline

import (
	"context"
	"time"

	"github.com/freundallein/lakeflow/chassis/catalog"
	"github.com/freundallein/lakeflow/chassis/export"
	"github.com/freundallein/lakeflow/chassis/paramstore"
	"github.com/freundallein/lakeflow/chassis/query"
)

type fakeExport struct {
	desc  *export.Description
	err   error
	calls int
}

func (f *fakeExport) ExportTable(_ context.Context, _, _ string) (*export.Description, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.desc, nil
}

type memStore struct {
	values map[string]*paramstore.Parameter
	putErr error
	getErr error
	puts   int
}

func newMemStore() *memStore {
	return &memStore{values: map[string]*paramstore.Parameter{}}
}

func (s *memStore) Put(_ context.Context, key, value string) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	version := int64(1)
	if prev, ok := s.values[key]; ok {
		version = prev.Version + 1
	}
	s.values[key] = &paramstore.Parameter{Name: key, Value: value, Version: version}
	return nil
}

func (s *memStore) Get(_ context.Context, key string) (*paramstore.Parameter, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	param, ok := s.values[key]
	if !ok {
		return nil, paramstore.ErrNotFound
	}
	return param, nil
}

type fakeCatalog struct {
	created   []catalog.Crawler
	started   []string
	createErr error
	startErr  error
}

func (f *fakeCatalog) CreateCrawler(_ context.Context, crawler catalog.Crawler) error {
	f.created = append(f.created, crawler)
	return f.createErr
}

func (f *fakeCatalog) StartCrawler(_ context.Context, name string) error {
	f.started = append(f.started, name)
	return f.startErr
}

func (f *fakeCatalog) calls() int {
	return len(f.created) + len(f.started)
}

type fakeQuery struct {
	id          string
	states      []query.State
	reason      string
	output      string
	result      *query.ResultSet
	startErr    error
	requests    []query.Request
	polls       int
	resultCalls int
}

func (f *fakeQuery) StartQuery(_ context.Context, req query.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.id, nil
}

func (f *fakeQuery) GetExecution(_ context.Context, id string) (*query.Execution, error) {
	state := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	return &query.Execution{ID: id, State: state, Reason: f.reason, OutputLocation: f.output}, nil
}

func (f *fakeQuery) GetResults(_ context.Context, _ string) (*query.ResultSet, error) {
	f.resultCalls++
	return f.result, nil
}

func (f *fakeQuery) calls() int {
	return len(f.requests) + f.polls + f.resultCalls
}

// countingSleep replaces the poll wait and records every interval.
type countingSleep struct {
	waits []time.Duration
}

func (c *countingSleep) sleep(ctx context.Context, d time.Duration) error {
	c.waits = append(c.waits, d)
	return ctx.Err()
}
