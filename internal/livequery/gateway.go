// Package livequery provides ordered, live-updating views over
// parent-scoped document collections. Subscribers always receive the
// complete current result set, never diffs, and ordering is applied
// client-side so the store needs no composite sort indexes.
package livequery

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mbeoliero/tradehub/pkg/errcode"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Query describes a live view over one parent's child documents
type Query struct {
	Parent    string // parent collection, e.g. "conversations"
	ParentId  string
	Child     string // child collection, e.g. "messages"
	ParentKey string // foreign-key field on the child; derived from Parent when empty
	Limit     int64
	// Less orders the delivered set; nil keeps store fetch order
	Less func(a, b bson.M) bool
}

// DataFunc receives the full current result set
type DataFunc func(docs []bson.M)

// ErrFunc is invoked at most once and terminates the subscription
type ErrFunc func(err error)

// Source abstracts fetch and change signaling over the document store
type Source interface {
	// Fetch returns the current full child set for the query
	Fetch(ctx context.Context, q Query) ([]bson.M, error)
	// Watch emits a signal whenever the child set may have changed.
	// The channel closes when the watch ends; cancelling ctx stops it.
	Watch(ctx context.Context, q Query) (<-chan struct{}, error)
}

// Gateway turns a Source into callback subscriptions
type Gateway struct {
	source Source
}

// NewGateway creates a new Gateway
func NewGateway(source Source) *Gateway {
	return &Gateway{source: source}
}

// Subscribe delivers the current result set once immediately and again
// after every change. The returned cancel func is idempotent and stops
// further callbacks promptly; after onErr fires, cancel is a no-op.
func (g *Gateway) Subscribe(ctx context.Context, q Query, onData DataFunc, onErr ErrFunc) (cancel func()) {
	if q.ParentKey == "" {
		q.ParentKey = ParentKey(q.Parent)
	}

	sctx, stop := context.WithCancel(ctx)
	sub := &subscription{stopCtx: stop}
	go sub.run(sctx, g.source, q, onData, onErr)
	return sub.cancel
}

// ParentKey derives the child foreign-key field from a parent
// collection name: "conversations" -> "conversation_id"
func ParentKey(parent string) string {
	return strings.TrimSuffix(parent, "s") + "_id"
}

type subscription struct {
	mu      sync.Mutex
	done    bool
	stopCtx context.CancelFunc
}

func (s *subscription) run(ctx context.Context, src Source, q Query, onData DataFunc, onErr ErrFunc) {
	// Watch starts before the initial fetch so a write landing between
	// the two triggers a re-fetch instead of being missed
	changes, err := src.Watch(ctx, q)
	if err != nil {
		s.fail(onErr, errcode.ErrWatchFailed.Wrap(err))
		return
	}

	if !s.deliver(ctx, src, q, onData, onErr) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() == nil {
					s.fail(onErr, errcode.ErrWatchFailed)
				}
				return
			}
			if !s.deliver(ctx, src, q, onData, onErr) {
				return
			}
		}
	}
}

// deliver fetches the full set, sorts it, and hands it to onData.
// Returns false when the subscription terminated.
func (s *subscription) deliver(ctx context.Context, src Source, q Query, onData DataFunc, onErr ErrFunc) bool {
	docs, err := src.Fetch(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.fail(onErr, err)
		return false
	}

	if q.Less != nil {
		sort.SliceStable(docs, func(i, j int) bool { return q.Less(docs[i], docs[j]) })
	}
	if docs == nil {
		docs = []bson.M{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	onData(docs)
	return true
}

// fail delivers the terminal error unless already terminated
func (s *subscription) fail(onErr ErrFunc, err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	onErr(err)
	s.mu.Unlock()
	s.stopCtx()
}

// cancel terminates the subscription; safe to call repeatedly
func (s *subscription) cancel() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.stopCtx()
}
