package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/alfredjeanlab/warroom/internal/config"
	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/metrics"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

func TestSelect(t *testing.T) {
	for _, tc := range []struct {
		url     string
		want    Kind
		wantErr bool
	}{
		{"", KindLocal, false},
		{"nats://localhost:4222", KindNATS, false},
		{"tls://nats.example.com:4222", KindNATS, false},
		{"postgres://u:p@db:5432/warroom?sslmode=disable", KindPostgres, false},
		{"postgresql://db/warroom", KindPostgres, false},
		{"https://example.firebaseio.com", "", true},
	} {
		got, err := Select(&config.Config{RemoteURL: tc.url})
		if tc.wantErr {
			if err == nil {
				t.Errorf("Select(%q) expected error", tc.url)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Select(%q) = %q, %v; want %q", tc.url, got, err, tc.want)
		}
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_LocalUsesDeviceSlots(t *testing.T) {
	slots := kv.NewMemory()
	s, err := Open(context.Background(), config.Default(), slots, quietLogger(), WithMetrics(metrics.NewManager()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Mode() != store.ModeLocal {
		t.Fatalf("Mode = %s, want local", s.Mode())
	}
	if _, err := s.Create(context.Background(), model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityOnline}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok, _ := slots.Get(context.Background(), "koh_activities"); !ok {
		t.Error("local backend did not write the device slot")
	}
}

func TestOpen_NilLogger(t *testing.T) {
	st, err := Open(context.Background(), &config.Config{}, kv.NewMemory(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if st.Mode() != store.ModeLocal {
		t.Errorf("Mode() = %v, want local", st.Mode())
	}
}

func TestOpen_NATSIsRemote(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1, JetStream: true, StoreDir: t.TempDir()})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}

	cfg := config.Default()
	cfg.RemoteURL = srv.ClientURL()
	slots := kv.NewMemory()
	s, err := Open(context.Background(), cfg, slots, quietLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Mode() != store.ModeRemote {
		t.Fatalf("Mode = %s, want remote", s.Mode())
	}
	if _, err := s.Create(context.Background(), model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityOnline}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok, _ := slots.Get(context.Background(), "koh_activities"); ok {
		t.Error("remote backend must not touch device record slots")
	}
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	cfg := config.Default()
	cfg.RemoteURL = "ftp://example.com"
	if _, err := Open(context.Background(), cfg, kv.NewMemory(), quietLogger()); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
