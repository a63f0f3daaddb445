// Package jitcache keeps compiled images in a pebble database so identical programs are
// compiled once per helper layout.
package jitcache

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/vmihailenco/msgpack/v5"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/execmem"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/jit"
)

// Current entry schema; bump when Entry or the key derivation changes.
const schemaVersion uint16 = 1

var keyPrefix = []byte("img/")

// Entry is the stored form of one compiled image.
type Entry struct {
	Schema  uint16    `msgpack:"schema"`
	Image   jit.Image `msgpack:"image"`
	Slots   int       `msgpack:"slots"`
	Created int64     `msgpack:"created"`
}

// Stats counts lookups since the cache was opened.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Cache is a persistent map from Key to Entry. It is safe for concurrent use.
type Cache struct {
	db     *pebble.DB
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Open opens (creating if needed) the cache database in dir.
func Open(dir string) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open jit cache %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*Cache, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("open in-memory jit cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func dbKey(k Key) []byte {
	return append(append([]byte(nil), keyPrefix...), k[:]...)
}

// Get returns the entry stored under k. Entries written with another schema count as misses.
func (c *Cache) Get(k Key) (Entry, bool, error) {
	val, closer, err := c.db.Get(dbKey(k))
	if errors.Is(err, pebble.ErrNotFound) {
		c.misses.Add(1)
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s: %w", k, err)
	}
	defer closer.Close()

	var e Entry
	if err := msgpack.Unmarshal(val, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode %s: %w", k, err)
	}
	if e.Schema != schemaVersion {
		c.misses.Add(1)
		return Entry{}, false, nil
	}
	c.hits.Add(1)
	return e, true, nil
}

// Put stores img under k.
func (c *Cache) Put(k Key, img jit.Image, slots int) error {
	val, err := msgpack.Marshal(&Entry{
		Schema:  schemaVersion,
		Image:   img,
		Slots:   slots,
		Created: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	if err := c.db.Set(dbKey(k), val, pebble.Sync); err != nil {
		return fmt.Errorf("put %s: %w", k, err)
	}
	return nil
}

// Delete removes the entry under k, if any.
func (c *Cache) Delete(k Key) error {
	return c.db.Delete(dbKey(k), pebble.Sync)
}

// Keys lists every stored key in order.
func (c *Cache) Keys() ([]Key, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: prefixEnd(keyPrefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var keys []Key
	for iter.First(); iter.Valid(); iter.Next() {
		var k Key
		copy(k[:], iter.Key()[len(keyPrefix):])
		keys = append(keys, k)
	}
	return keys, iter.Error()
}

// Purge removes every entry in one batch.
func (c *Cache) Purge() error {
	batch := c.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange(keyPrefix, prefixEnd(keyPrefix), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	end[len(end)-1]++
	return end
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Compile returns prog's compiled form, installing a cached image when one exists for this
// target and helper layout and compiling (then storing) it otherwise. hit reports which
// happened. Compilation errors are returned as is and nothing is stored for them.
func (c *Cache) Compile(prog bpf.Program, table *helpers.Table, alloc execmem.Allocator, opts jit.Options) (p *jit.CompiledProgram, hit bool, err error) {
	if !opts.Enabled {
		return nil, false, jit.ErrDisabled
	}
	k := KeyFor(opts.Target, table.List(), prog)
	e, ok, err := c.Get(k)
	if err != nil {
		return nil, false, err
	}
	if ok && e.Slots == len(prog) {
		cached, err := jit.Install(e.Image, alloc, opts)
		switch {
		case err == nil:
			return cached, true, nil
		case errors.Is(err, jit.ErrAllocationFailed):
			return nil, false, err
		}
		// Damaged entry; compile afresh and overwrite it.
		_ = c.Delete(k)
	}

	var res helpers.Resolver
	if table != nil {
		res = table
	}
	p, err = jit.Compile(prog, res, alloc, opts)
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(k, p.Export(), len(prog)); err != nil {
		return p, false, err
	}
	return p, false, nil
}
