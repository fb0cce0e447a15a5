package metadata

import (
	"context"
	"sync"

	"github.com/vmihailenco/msgpack"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// cachePayload is a metadata record as kept in the cache. NoImage keeps the
// ErrNoImg outcome so a cached document behaves like a fresh one.
type cachePayload struct {
	Record  Record
	NoImage bool
}

// plainPayload has no binary methods, msgpack would call them back otherwise.
type plainPayload cachePayload

func (p *cachePayload) UnmarshalBinary(data []byte) error {
	var pp plainPayload
	if err := msgpack.Unmarshal(data, &pp); err != nil {
		return errors.Wrap(err, "failed to msgpack unmarshal")
	}

	*p = cachePayload(pp)
	return nil
}

func (p *cachePayload) MarshalBinary() (data []byte, err error) {
	return msgpack.Marshal((*plainPayload)(p))
}

// CachedLoader remembers metadata of ipfs documents for the lifetime of the
// process. Only content addressed documents are cached, other uris always go
// to the inner loader. Entries are stored encoded so callers never share a
// record.
type CachedLoader struct {
	Loader
	log *logan.Entry

	mu      sync.RWMutex
	entries map[ContentURI][]byte
}

func NewCachedLoader(log *logan.Entry, inner Loader) *CachedLoader {
	return &CachedLoader{
		Loader:  inner,
		log:     log,
		entries: make(map[ContentURI][]byte),
	}
}

func (c *CachedLoader) LoadMetadata(ctx context.Context, uri ContentURI, out interface{}) error {
	record, ok := out.(*Record)
	if !ok || uri.Kind() != KindIPFS {
		return c.Loader.LoadMetadata(ctx, uri, out)
	}

	key := uri.Normalize()

	if cached, ok := c.get(key); ok {
		*record = cached.Record
		if cached.NoImage {
			return ErrNoImg
		}
		return nil
	}

	err := c.Loader.LoadMetadata(ctx, uri, record)
	noImage := errors.Cause(err) == ErrNoImg
	if err != nil && !noImage {
		return err
	}

	c.set(key, &cachePayload{Record: *record, NoImage: noImage})
	return err
}

func (c *CachedLoader) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CachedLoader) get(key ContentURI) (*cachePayload, bool) {
	c.mu.RLock()
	raw, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	var payload cachePayload
	if err := payload.UnmarshalBinary(raw); err != nil {
		c.log.WithError(err).WithField("uri", string(key)).Warn("dropping broken cache entry")
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return &payload, true
}

func (c *CachedLoader) set(key ContentURI, payload *cachePayload) {
	raw, err := payload.MarshalBinary()
	if err != nil {
		c.log.WithError(err).WithField("uri", string(key)).Warn("failed to cache metadata")
		return
	}

	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
}
