package livequery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeSource serves canned result sets and lets tests drive change
// signals by hand
type fakeSource struct {
	mu       sync.Mutex
	docs     []bson.M
	fetchErr error
	changes  chan struct{}
	watchErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{changes: make(chan struct{}, 1)}
}

func (f *fakeSource) setDocs(docs []bson.M) {
	f.mu.Lock()
	f.docs = docs
	f.mu.Unlock()
}

func (f *fakeSource) Fetch(_ context.Context, _ Query) ([]bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]bson.M, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeSource) Watch(_ context.Context, _ Query) (<-chan struct{}, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.changes, nil
}

type recorder struct {
	mu     sync.Mutex
	sets   [][]bson.M
	errs   []error
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) onData(docs []bson.M) {
	r.mu.Lock()
	r.sets = append(r.sets, docs)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) onErr(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func (r *recorder) snapshot() ([][]bson.M, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sets := make([][]bson.M, len(r.sets))
	copy(sets, r.sets)
	errs := make([]error, len(r.errs))
	copy(errs, r.errs)
	return sets, errs
}

func TestGateway_InitialDelivery(t *testing.T) {
	src := newFakeSource()
	src.setDocs([]bson.M{{"content": "hello"}})
	rec := newRecorder()

	cancel := NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)
	defer cancel()

	rec.wait(t)
	sets, errs := rec.snapshot()
	require.Len(t, sets, 1)
	assert.Empty(t, errs)
	assert.Equal(t, "hello", sets[0][0]["content"])
}

func TestGateway_EmptySetIsDelivered(t *testing.T) {
	src := newFakeSource()
	rec := newRecorder()

	cancel := NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)
	defer cancel()

	rec.wait(t)
	sets, _ := rec.snapshot()
	require.Len(t, sets, 1)

	// An empty result is a delivery, not a skip
	assert.NotNil(t, sets[0])
	assert.Empty(t, sets[0])
}

func TestGateway_RedeliversFullSetOnChange(t *testing.T) {
	src := newFakeSource()
	src.setDocs([]bson.M{{"content": "a"}})
	rec := newRecorder()

	cancel := NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)
	defer cancel()

	rec.wait(t)

	src.setDocs([]bson.M{{"content": "a"}, {"content": "b"}})
	src.changes <- struct{}{}
	rec.wait(t)

	sets, _ := rec.snapshot()
	require.Len(t, sets, 2)

	// The whole set again, not a diff
	assert.Len(t, sets[1], 2)
}

func TestGateway_SortsWithComparator(t *testing.T) {
	src := newFakeSource()
	src.setDocs([]bson.M{
		{"content": "late", "created_at": time.Unix(300, 0)},
		{"content": "early", "created_at": time.Unix(100, 0)},
		{"content": "mid", "created_at": time.Unix(200, 0)},
	})
	rec := newRecorder()

	cancel := NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
		Less:     LessByTime("created_at"),
	}, rec.onData, rec.onErr)
	defer cancel()

	rec.wait(t)
	sets, _ := rec.snapshot()
	require.Len(t, sets, 1)
	assert.Equal(t, "early", sets[0][0]["content"])
	assert.Equal(t, "mid", sets[0][1]["content"])
	assert.Equal(t, "late", sets[0][2]["content"])
}

func TestGateway_ErrorIsTerminalAndAtMostOnce(t *testing.T) {
	src := newFakeSource()
	src.fetchErr = assert.AnError
	rec := newRecorder()

	NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)

	rec.wait(t)

	// Further signals must not resurrect the stream
	src.changes <- struct{}{}
	time.Sleep(50 * time.Millisecond)

	sets, errs := rec.snapshot()
	assert.Empty(t, sets)
	require.Len(t, errs, 1)
}

func TestGateway_WatchEndTerminates(t *testing.T) {
	src := newFakeSource()
	rec := newRecorder()

	NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)

	rec.wait(t)
	close(src.changes)
	rec.wait(t)

	_, errs := rec.snapshot()
	require.Len(t, errs, 1)
}

func TestGateway_CancelStopsDeliveries(t *testing.T) {
	src := newFakeSource()
	rec := newRecorder()

	cancel := NewGateway(src).Subscribe(context.Background(), Query{
		Parent:   "conversations",
		ParentId: "c1",
		Child:    "messages",
	}, rec.onData, rec.onErr)

	rec.wait(t)
	cancel()

	// Cancel is idempotent
	cancel()

	select {
	case src.changes <- struct{}{}:
	default:
	}
	time.Sleep(50 * time.Millisecond)

	sets, errs := rec.snapshot()
	assert.Len(t, sets, 1)
	assert.Empty(t, errs)
}

func TestParentKey(t *testing.T) {
	assert.Equal(t, "conversation_id", ParentKey("conversations"))
	assert.Equal(t, "rfq_id", ParentKey("rfqs"))
}
