// Package remote implements the shared record backend over a multi-writer
// tree of per-category paths, each holding records keyed by id.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/idgen"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// OrderChild is the node field the tree orders category reads by.
const OrderChild = "occurredAtUtc"

// ErrNodeExists is returned by Tree.Create when the key is already taken.
var ErrNodeExists = errors.New("node already exists")

// Node is one child of a tree path.
type Node struct {
	Key   string
	Value []byte
}

// Tree is a shared structure of paths and keyed JSON nodes.
type Tree interface {
	// List returns the children of path ordered ascending by the JSON field
	// orderChild.
	List(ctx context.Context, path, orderChild string) ([]Node, error)
	// Create writes a new node. An existing key is left as is and
	// ErrNodeExists is returned.
	Create(ctx context.Context, path, key string, value []byte) error
	// Remove deletes a node. Removing a missing node succeeds.
	Remove(ctx context.Context, path, key string) error
	// Watch calls onChange after any write under path until stop is called.
	Watch(ctx context.Context, path string, onChange func()) (stop func(), err error)
	Close() error
}

// Adapter stores records in a shared Tree.
type Adapter struct {
	tree   Tree
	clock  clockwork.Clock
	logger *slog.Logger
}

var _ store.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock used to stamp generated keys.
func WithClock(clk clockwork.Clock) Option {
	return func(a *Adapter) { a.clock = clk }
}

// New returns a remote adapter over tree.
func New(tree Tree, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{tree: tree, clock: clockwork.NewRealClock(), logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Mode() store.Mode { return store.ModeRemote }

// NewID returns a time-ordered push key.
func (a *Adapter) NewID(context.Context) (string, error) {
	return idgen.PushKey(a.clock.Now())
}

// List reads the category ascending and returns it newest first.
func (a *Adapter) List(ctx context.Context, c model.Category) ([]model.Record, error) {
	nodes, err := a.tree.List(ctx, c.RemotePath(), OrderChild)
	if err != nil {
		return nil, &store.RemoteError{Op: "list", Category: c, Err: err}
	}
	records := make([]model.Record, 0, len(nodes))
	for _, n := range nodes {
		rec, err := model.DecodeNode(n.Key, n.Value)
		if err != nil {
			a.logger.Warn("discarding unreadable remote category", "category", c, "key", n.Key, "err", err)
			return []model.Record{}, nil
		}
		records = append(records, rec)
	}
	slices.Reverse(records)
	return records, nil
}

func (a *Adapter) Put(ctx context.Context, c model.Category, r model.Record) error {
	data, err := model.EncodeNode(r)
	if err != nil {
		return &store.RemoteError{Op: "create", Category: c, Err: err}
	}
	if err := a.tree.Create(ctx, c.RemotePath(), r.ID, data); err != nil {
		if errors.Is(err, ErrNodeExists) {
			return fmt.Errorf("create %s: %w: %q", c, store.ErrDuplicateID, r.ID)
		}
		return &store.RemoteError{Op: "create", Category: c, Err: err}
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, c model.Category, id string) error {
	if err := a.tree.Remove(ctx, c.RemotePath(), id); err != nil {
		return &store.RemoteError{Op: "delete", Category: c, Err: err}
	}
	return nil
}

func (a *Adapter) Subscribe(ctx context.Context, c model.Category, onChange func()) (func(), error) {
	stop, err := a.tree.Watch(ctx, c.RemotePath(), onChange)
	if err != nil {
		return nil, &store.RemoteError{Op: "subscribe", Category: c, Err: err}
	}
	return stop, nil
}

func (a *Adapter) Close() error {
	return a.tree.Close()
}
