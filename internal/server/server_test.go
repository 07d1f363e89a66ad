package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/config"
	"github.com/jackzampolin/dossier/internal/home"
	"github.com/jackzampolin/dossier/internal/server/endpoints"
	"github.com/jackzampolin/dossier/internal/testutil"
)

// newTestServer builds a server on a free port with thumbnails disabled.
// extra is appended to the config file.
func newTestServer(t *testing.T, extra string) (*Server, testutil.ServerConfig) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)

	if err := os.WriteFile(cfg.ConfigFile, []byte("render:\n  disabled: true\n"+extra), 0o644); err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatal(err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		Home:          h,
		ConfigManager: mgr,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg
}

// startTestServer starts srv and stops it when the test ends.
func startTestServer(t *testing.T, srv *Server, url string) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(url, 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return done
}

func TestServer_FullLifecycle(t *testing.T) {
	srv, cfg := newTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if status.Server != "running" {
			t.Errorf("status.Server = %q, want running", status.Server)
		}
		if status.Thumbnails || status.Storage {
			t.Errorf("thumbnails and storage should be off: %+v", status)
		}
	})

	t.Run("session_roundtrip", func(t *testing.T) {
		client := api.NewClient(cfg.URL())
		var created endpoints.CreateSessionResponse
		if err := client.Post(ctx, "/api/sessions", nil, &created); err != nil {
			t.Fatalf("create session: %v", err)
		}
		var loaded endpoints.LoadResponse
		data := testutil.MakePDF(t, 2, "lifecycle")
		if err := client.PostFile(ctx, "/api/sessions/"+created.ID+"/documents", "file", "a.pdf", data, nil, &loaded); err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(loaded.Pages) != 2 || loaded.Pages[0].ThumbnailURL != "" {
			t.Errorf("unexpected load response %+v", loaded)
		}
		if got := len(srv.Sessions().List()); got != 1 {
			t.Errorf("sessions = %d, want 1", got)
		}
	})

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("Start() returned %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if _, err := http.Get(cfg.URL() + "/health"); err == nil {
		t.Error("server still accepting connections after shutdown")
	}
}

func TestServer_DoubleStart(t *testing.T) {
	srv, cfg := newTestServer(t, "")
	startTestServer(t, srv, cfg.URL())

	err := srv.Start(context.Background())
	if err == nil || err.Error() != "server already running" {
		t.Errorf("second Start() error = %v", err)
	}
}

func TestServer_PortInUse(t *testing.T) {
	first, cfg := newTestServer(t, "")
	startTestServer(t, first, cfg.URL())

	second, err := New(Config{Host: cfg.Host, Port: cfg.Port, Home: first.home, Logger: cfg.Logger})
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Error("expected listen error on a bound port")
	}
	if second.IsRunning() {
		t.Error("failed server reports running")
	}
}

func TestServer_RequireInit(t *testing.T) {
	srv, _ := newTestServer(t, "")
	handler := srv.Handler()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/api/sessions", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestServer_Storage(t *testing.T) {
	store := httptest.NewServer(http.NotFoundHandler())
	defer store.Close()

	srv, cfg := newTestServer(t, fmt.Sprintf("storage:\n  base_url: %q\n", store.URL))
	startTestServer(t, srv, cfg.URL())

	status, err := testutil.GetStatus(cfg.URL())
	if err != nil {
		t.Fatal(err)
	}
	if !status.Storage {
		t.Error("status.Storage = false with storage.base_url set")
	}
}
