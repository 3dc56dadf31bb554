// Package redis is a store.Backend on Redis.
//
// Each record is a string key holding its JSON document:
// "todone:<table>:<id>". Tables are enumerated with SCAN.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jayphen/todone/internal/store"
)

const (
	// KeyPrefix is the Redis key prefix for every todone record.
	KeyPrefix = "todone:"
	// DefaultRedisURL is the default Redis connection URL.
	DefaultRedisURL = "redis://localhost:6379"
)

// Client wraps a Redis client as a record store.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to the Redis server at url.
func NewClient(url string) (*Client, error) {
	if url == "" {
		url = DefaultRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// New wraps an existing go-redis client.
func New(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get implements store.Backend.
func (c *Client) Get(ctx context.Context, table, id string) ([]byte, error) {
	doc, err := c.rdb.Get(ctx, recordKey(table, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	return doc, err
}

// Insert implements store.Backend.
func (c *Client) Insert(ctx context.Context, table, id string, doc []byte) error {
	ok, err := c.rdb.SetNX(ctx, recordKey(table, id), doc, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrExists
	}
	return nil
}

// Replace implements store.Backend.
func (c *Client) Replace(ctx context.Context, table, id string, doc []byte) error {
	ok, err := c.rdb.SetXX(ctx, recordKey(table, id), doc, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

// Delete implements store.Backend.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	return c.rdb.Del(ctx, recordKey(table, id)).Err()
}

// Scan implements store.Backend. Documents are ordered by id.
func (c *Client) Scan(ctx context.Context, table string) ([][]byte, error) {
	recs, err := c.scanTable(ctx, table)
	if err != nil {
		return nil, err
	}
	return docsOf(recs), nil
}

// Batch implements store.Backend. Writes are buffered and flushed in one
// MULTI/EXEC when fn succeeds; reads inside fn see the buffered writes.
func (c *Client) Batch(ctx context.Context, fn func(store.Backend) error) error {
	b := &batch{c: c, pending: make(map[string]pendingWrite)}
	if err := fn(b); err != nil {
		return err
	}
	return b.flush(ctx)
}

// IsAvailable checks if Redis is reachable at url.
func IsAvailable(url string) bool {
	client, err := NewClient(url)
	if err != nil {
		return false
	}
	defer client.Close()
	return true
}

type record struct {
	key string
	doc []byte
}

// scanTable loads every record of a table, sorted by key.
func (c *Client) scanTable(ctx context.Context, table string) ([]record, error) {
	keys, err := c.scanKeys(ctx, tablePrefix(table)+"*")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	slices.Sort(keys)

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]record, 0, len(values))
	for i, val := range values {
		// Deleted between SCAN and MGET.
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		recs = append(recs, record{key: keys[i], doc: []byte(str)})
	}
	return recs, nil
}

// scanKeys scans for all keys matching a pattern.
func (c *Client) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error
		batch, cursor, err = c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return keys, err
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

type pendingWrite struct {
	doc     []byte
	deleted bool
}

// batch buffers writes on top of a Client.
type batch struct {
	c       *Client
	pending map[string]pendingWrite
	order   []string
}

func (b *batch) put(key string, w pendingWrite) {
	if _, seen := b.pending[key]; !seen {
		b.order = append(b.order, key)
	}
	b.pending[key] = w
}

func (b *batch) exists(ctx context.Context, key string) (bool, error) {
	if w, ok := b.pending[key]; ok {
		return !w.deleted, nil
	}
	n, err := b.c.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (b *batch) Get(ctx context.Context, table, id string) ([]byte, error) {
	if w, ok := b.pending[recordKey(table, id)]; ok {
		if w.deleted {
			return nil, store.ErrNotFound
		}
		return w.doc, nil
	}
	return b.c.Get(ctx, table, id)
}

func (b *batch) Insert(ctx context.Context, table, id string, doc []byte) error {
	key := recordKey(table, id)
	found, err := b.exists(ctx, key)
	if err != nil {
		return err
	}
	if found {
		return store.ErrExists
	}
	b.put(key, pendingWrite{doc: doc})
	return nil
}

func (b *batch) Replace(ctx context.Context, table, id string, doc []byte) error {
	key := recordKey(table, id)
	found, err := b.exists(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	b.put(key, pendingWrite{doc: doc})
	return nil
}

func (b *batch) Delete(_ context.Context, table, id string) error {
	b.put(recordKey(table, id), pendingWrite{deleted: true})
	return nil
}

func (b *batch) Scan(ctx context.Context, table string) ([][]byte, error) {
	recs, err := b.c.scanTable(ctx, table)
	if err != nil {
		return nil, err
	}

	prefix := tablePrefix(table)
	merged := make([]record, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		seen[r.key] = true
		if w, ok := b.pending[r.key]; ok {
			if w.deleted {
				continue
			}
			r.doc = w.doc
		}
		merged = append(merged, r)
	}
	for _, key := range b.order {
		w := b.pending[key]
		if seen[key] || w.deleted || !strings.HasPrefix(key, prefix) {
			continue
		}
		merged = append(merged, record{key: key, doc: w.doc})
	}
	slices.SortFunc(merged, func(x, y record) int { return strings.Compare(x.key, y.key) })
	return docsOf(merged), nil
}

func (b *batch) Batch(_ context.Context, fn func(store.Backend) error) error {
	return fn(b)
}

func (b *batch) Close() error {
	return nil
}

func (b *batch) flush(ctx context.Context) error {
	if len(b.order) == 0 {
		return nil
	}
	_, err := b.c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range b.order {
			w := b.pending[key]
			if w.deleted {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, w.doc, 0)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}
	return nil
}

func tablePrefix(table string) string {
	return KeyPrefix + table + ":"
}

func recordKey(table, id string) string {
	return tablePrefix(table) + id
}

func docsOf(recs []record) [][]byte {
	docs := make([][]byte, len(recs))
	for i, r := range recs {
		docs[i] = r.doc
	}
	return docs
}
