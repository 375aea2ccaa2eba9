package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/agencysite/internal/contact"
	"github.com/yanizio/agencysite/internal/content"
	"github.com/yanizio/agencysite/internal/metrics"
)

// Static defaults, overridden by the session section of site.yaml.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

// ErrStoreClosed is returned by Get after Close.
var ErrStoreClosed = errors.New("session: store closed")

// Options configure NewStore.
type Options struct {
	IdleTTL       time.Duration
	MaxEntries    int // 0 disables LRU eviction
	EvictInterval time.Duration
	Catalog       *content.Catalog // seeds each visitor's Selector
	Forms         FormFactory
	Log           *zap.SugaredLogger
}

// Store lazily creates visitors, stores them in a sync.Map, and evicts them
// on idle TTL or LRU pressure.
type Store struct {
	sfg         singleflight.Group
	m           sync.Map
	count       atomic.Int64
	evictTicker *time.Ticker
	idleTTL     time.Duration
	maxEntries  int
	catalog     *content.Catalog
	forms       FormFactory
	log         *zap.SugaredLogger

	closeOnce sync.Once
	closed    atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewStore constructs a Store and starts the background evictor.  Call
// Close to stop it.
func NewStore(opts Options) *Store {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = IdleTTL
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = EvictInterval
	}
	if opts.Catalog == nil {
		opts.Catalog = content.Default()
	}
	if opts.Forms == nil {
		opts.Forms = func(id string) (*contact.Controller, error) {
			return contact.New(contact.Options{FormID: id}), nil
		}
	}
	if opts.Log == nil {
		opts.Log = zap.S()
	}
	s := &Store{
		idleTTL:    opts.IdleTTL,
		maxEntries: opts.MaxEntries,
		catalog:    opts.Catalog,
		forms:      opts.Forms,
		log:        opts.Log,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.evictTicker = time.NewTicker(opts.EvictInterval)
	go s.evictLoop()
	return s
}

// Get returns the Visitor for id, creating it on demand.
func (s *Store) Get(id string) (*Visitor, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if v, ok := s.touch(id); ok {
		return v, nil
	}

	v, err, _ := s.sfg.Do(id, func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := s.touch(id); ok {
			return v, nil
		}
		vis := newVisitor(id, contact.NewSelector(s.catalog.Categories()), s.forms)
		s.m.Store(id, &entry{visitor: vis, lastSeen: time.Now().UnixNano()})
		s.count.Add(1)
		metrics.VisitorLoadTotal.Inc()
		metrics.ActiveVisitors.Inc()
		return vis, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Visitor), nil
}

// Peek returns the Visitor for id without creating or touching it.
func (s *Store) Peek(id string) (*Visitor, bool) {
	v, ok := s.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*entry).visitor, true
}

// Len reports how many visitors are held.
func (s *Store) Len() int { return int(s.count.Load()) }

// Close stops the evictor and closes every visitor.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		<-s.done
		s.m.Range(func(key, value any) bool {
			s.remove(key, value.(*entry), "shutdown")
			return true
		})
	})
}

func (s *Store) touch(id string) (*Visitor, bool) {
	v, ok := s.m.Load(id)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
	return ent.visitor, true
}

// remove deletes key if it still maps to ent and closes the visitor.
func (s *Store) remove(key any, ent *entry, reason string) bool {
	if !s.m.CompareAndDelete(key, ent) {
		return false
	}
	ent.visitor.Close()
	s.count.Add(-1)
	metrics.VisitorEvictTotal.WithLabelValues(reason).Inc()
	metrics.ActiveVisitors.Dec()
	return true
}
