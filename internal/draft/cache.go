package draft

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/profileform/internal/metrics"
)

// Static defaults.  Override via the session section of the config.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

// ErrBadID is returned for session ids that were not minted by NewID.
var ErrBadID = errors.New("malformed draft session id")

// Cache lazily creates draft sessions, stores them in a sync.Map, and evicts
// them on idle TTL or LRU pressure.
type Cache struct {
	sfg         singleflight.Group
	m           sync.Map
	size        atomic.Int64
	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	idleTTL     time.Duration
	maxEntries  int
	log         *zap.SugaredLogger
}

// New constructs a Cache and starts the background evictor.  A zero
// evictInterval disables the loop; callers then drive Evict themselves.
func New(idleTTL time.Duration, maxEntries int, evictInterval time.Duration, log *zap.SugaredLogger) *Cache {
	if log == nil {
		log = zap.S()
	}
	c := &Cache{
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
		log:        log,
	}
	if evictInterval > 0 {
		c.evictTicker = time.NewTicker(evictInterval)
		go c.evictLoop()
	}
	return c
}

// Get returns an existing session and marks it used.
func (c *Cache) Get(id string) (*Session, bool) {
	v, ok := c.m.Load(id)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
	return ent.session, true
}

// Open returns the live session for id.  An empty id, or one the cache does
// not hold, gets a freshly minted session: client-chosen ids never become
// session keys.  Concurrent opens presenting the same stale id share one
// replacement.
func (c *Cache) Open(id string) (*Session, error) {
	if id == "" {
		return c.create()
	}
	if !validID(id) {
		return nil, ErrBadID
	}
	if s, ok := c.Get(id); ok {
		return s, nil
	}

	v, err, _ := c.sfg.Do(id, func() (interface{}, error) {
		return c.create()
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (c *Cache) create() (*Session, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	s := newSession(id)
	c.m.Store(id, &entry{session: s, lastSeen: time.Now().UnixNano()})
	c.size.Add(1)
	metrics.DraftOpenTotal.Inc()
	metrics.ActiveDrafts.Inc()
	return s, nil
}

// Discard drops a session immediately.
func (c *Cache) Discard(id string) {
	if _, ok := c.m.LoadAndDelete(id); ok {
		c.size.Add(-1)
		metrics.DraftEvictTotal.WithLabelValues("discard").Inc()
		metrics.ActiveDrafts.Dec()
	}
}

// Len reports the number of live sessions.
func (c *Cache) Len() int { return int(c.size.Load()) }

// Close stops the evictor.  Sessions stay readable until the process exits.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		if c.evictTicker != nil {
			c.evictTicker.Stop()
		}
		close(c.done)
	})
}

// NewID returns a random 128-bit session id in hex.
func NewID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
