// Package natskv implements a remote.Tree on a NATS JetStream key-value bucket.
// A node at path/key is stored under the bucket key "<path>.<key>".
package natskv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/alfredjeanlab/warroom/internal/store/remote"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "warroom"

// Tree is a JetStream KV backed tree.
type Tree struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	logger *slog.Logger
}

var _ remote.Tree = (*Tree)(nil)

// Config describes how to reach the bucket.
type Config struct {
	URL    string
	Token  string
	Bucket string
}

// Open connects to NATS and binds the bucket, creating it if missing.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be appended.
func Open(ctx context.Context, cfg Config, logger *slog.Logger, opts ...nats.Option) (*Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := []nats.Option{
		nats.Name("warroom"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if cfg.Token != "" {
		defaults = append(defaults, nats.Token(cfg.Token))
	}
	nc, err := nats.Connect(cfg.URL, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	t, err := bind(ctx, nc, cfg.Bucket, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return t, nil
}

func bind(ctx context.Context, nc *nats.Conn, bucket string, logger *slog.Logger) (*Tree, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "war room shared records",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("bind bucket %s: %w", bucket, err)
	}
	return &Tree{conn: nc, kv: kv, logger: logger}, nil
}

func nodeKey(path, key string) string {
	return path + "." + key
}

// List reads every live key under path by replaying the bucket's current
// values, then orders them by orderChild.
func (t *Tree) List(ctx context.Context, path, orderChild string) ([]remote.Node, error) {
	w, err := t.kv.Watch(ctx, path+".>", jetstream.IgnoreDeletes())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer w.Stop() //nolint:errcheck

	prefix := path + "."
	var nodes []remote.Node
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("list %s: %w", path, ctx.Err())
		case entry, ok := <-w.Updates():
			if !ok {
				return nil, fmt.Errorf("list %s: watcher closed", path)
			}
			if entry == nil {
				// Initial values delivered.
				remote.SortByChild(nodes, orderChild)
				return nodes, nil
			}
			nodes = append(nodes, remote.Node{
				Key:   strings.TrimPrefix(entry.Key(), prefix),
				Value: entry.Value(),
			})
		}
	}
}

func (t *Tree) Create(ctx context.Context, path, key string, value []byte) error {
	if _, err := t.kv.Create(ctx, nodeKey(path, key), value); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("create %s/%s: %w", path, key, remote.ErrNodeExists)
		}
		return fmt.Errorf("create %s/%s: %w", path, key, err)
	}
	return nil
}

func (t *Tree) Remove(ctx context.Context, path, key string) error {
	err := t.kv.Delete(ctx, nodeKey(path, key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("remove %s/%s: %w", path, key, err)
	}
	return nil
}

// Watch fires onChange for every put or delete under path made after the
// call returns.
func (t *Tree) Watch(ctx context.Context, path string, onChange func()) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	w, err := t.kv.Watch(wctx, path+".>", jetstream.UpdatesOnly())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-wctx.Done():
				return
			case entry, ok := <-w.Updates():
				if !ok {
					return
				}
				if entry == nil {
					continue
				}
				onChange()
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			if err := w.Stop(); err != nil {
				t.logger.Debug("stopping watcher", "path", path, "err", err)
			}
			<-done
		})
	}
	return stop, nil
}

// Close drains and closes the connection.
func (t *Tree) Close() error {
	t.conn.Close()
	return nil
}
