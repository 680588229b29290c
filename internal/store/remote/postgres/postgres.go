// Package postgres implements a remote.Tree on a PostgreSQL table, with
// change notification through LISTEN/NOTIFY.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/warroom/internal/store/remote"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NotifyChannel is the channel the remote_nodes trigger notifies with the
// changed path as payload.
const NotifyChannel = "warroom_changes"

// Tree is a PostgreSQL backed tree.
type Tree struct {
	db     *sql.DB
	dsn    string
	logger *slog.Logger
}

var _ remote.Tree = (*Tree)(nil)

// Open connects to the database at databaseURL, configures the pool and runs
// any pending migrations.
func Open(databaseURL string, logger *slog.Logger) (*Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Tree{db: db, dsn: databaseURL, logger: logger}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (t *Tree) Close() error {
	return t.db.Close()
}

func (t *Tree) List(ctx context.Context, path, orderChild string) ([]remote.Node, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT key, body FROM remote_nodes WHERE path = $1 ORDER BY body->>$2, key`,
		path, orderChild)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer rows.Close()

	var nodes []remote.Node
	for rows.Next() {
		var n remote.Node
		if err := rows.Scan(&n.Key, &n.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return nodes, nil
}

func (t *Tree) Create(ctx context.Context, path, key string, value []byte) error {
	res, err := t.db.ExecContext(ctx,
		`INSERT INTO remote_nodes (path, key, body, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (path, key) DO NOTHING`,
		path, key, string(value))
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", path, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", path, key, err)
	}
	if n == 0 {
		return fmt.Errorf("create %s/%s: %w", path, key, remote.ErrNodeExists)
	}
	return nil
}

func (t *Tree) Remove(ctx context.Context, path, key string) error {
	if _, err := t.db.ExecContext(ctx,
		`DELETE FROM remote_nodes WHERE path = $1 AND key = $2`, path, key); err != nil {
		return fmt.Errorf("remove %s/%s: %w", path, key, err)
	}
	return nil
}

// Watch opens a dedicated listener connection. A lost connection also fires
// onChange once it is re-established, since notifications may have been missed.
func (t *Tree) Watch(ctx context.Context, path string, onChange func()) (func(), error) {
	listener := pq.NewListener(t.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			t.logger.Warn("postgres listener", "path", path, "event", ev, "err", err)
		}
	})
	if err := listener.Listen(NotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()
		for {
			select {
			case <-wctx.Done():
				return
			case n := <-listener.Notify:
				if n == nil || n.Extra == path {
					onChange()
				}
			case <-ping.C:
				go listener.Ping() //nolint:errcheck
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			if err := listener.Close(); err != nil {
				t.logger.Debug("closing listener", "path", path, "err", err)
			}
		})
	}
	return stop, nil
}
