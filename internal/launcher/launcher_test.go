package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
)

// writeScript writes a fake browser binary that ignores its flags.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script fake browser is unix-only")
	}

	path := filepath.Join(t.TempDir(), "fake-browser")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake browser: %v", err)
	}
	return path
}

func TestLaunchAndExitCallback(t *testing.T) {
	browserPath := writeScript(t, "exit 0")

	l := NewLauncher(t.TempDir())
	defer l.Close()

	var mu sync.Mutex
	exits := make(map[string]int)
	l.SetOnExit(func(id string, exitCode int) {
		mu.Lock()
		defer mu.Unlock()
		exits[id] = exitCode
	})

	browser, err := l.Launch(context.Background(), &model.LaunchRequest{
		BrowserPath: browserPath,
		Port:        9333,
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if browser.Port != 9333 {
		t.Errorf("port = %d, want 9333", browser.Port)
	}
	if browser.PID == nil {
		t.Error("launched browser should have a PID")
	}

	proc, err := l.Get(browser.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if proc.ID != browser.ID {
		t.Errorf("Get returned %s, want %s", proc.ID, browser.ID)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		_, done := exits[browser.ID]
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for exit callback")
		case <-time.After(10 * time.Millisecond):
		}
	}

	got, err := l.Get(browser.ID)
	if err != nil {
		t.Fatalf("Get after exit failed: %v", err)
	}
	if got.Status != model.BrowserStatusExited {
		t.Errorf("status = %q, want exited", got.Status)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", got.ExitCode)
	}
}

func TestKillRunningBrowser(t *testing.T) {
	browserPath := writeScript(t, "sleep 60")

	l := NewLauncher(t.TempDir())
	defer l.Close()

	browser, err := l.Launch(context.Background(), &model.LaunchRequest{
		BrowserPath: browserPath,
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if browser.Port != DefaultDebuggingPort {
		t.Errorf("default port = %d, want %d", browser.Port, DefaultDebuggingPort)
	}

	if err := l.Kill(browser.ID); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	// The record is gone once killed.
	if _, err := l.Get(browser.ID); !errors.Is(err, model.ErrBrowserNotFound) {
		t.Errorf("Get after kill = %v, want ErrBrowserNotFound", err)
	}
}

func TestKillUnknownBrowser(t *testing.T) {
	l := NewLauncher(t.TempDir())
	defer l.Close()

	if err := l.Kill("missing"); !errors.Is(err, model.ErrBrowserNotFound) {
		t.Errorf("Kill = %v, want ErrBrowserNotFound", err)
	}
}

func TestLaunchValidation(t *testing.T) {
	l := NewLauncher(t.TempDir())
	defer l.Close()

	_, err := l.Launch(context.Background(), &model.LaunchRequest{})
	if !errors.Is(err, model.ErrBrowserPathRequired) {
		t.Errorf("Launch without path = %v, want ErrBrowserPathRequired", err)
	}

	_, err = l.Launch(context.Background(), &model.LaunchRequest{
		BrowserPath: "/usr/bin/true",
		Port:        70000,
	})
	if !errors.Is(err, model.ErrInvalidPort) {
		t.Errorf("Launch with bad port = %v, want ErrInvalidPort", err)
	}
}

func TestDiscoverParsesTargetList(t *testing.T) {
	targets := []model.Target{
		{
			ID:                   "ABC",
			Title:                "Example",
			Type:                 "page",
			URL:                  "https://example.com/",
			WebSocketDebuggerURL: "ws://localhost:9222/devtools/page/ABC",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/list" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(targets)
	}))
	defer server.Close()

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split server address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	got, err := Discover(context.Background(), host, port)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(got) != 1 || got[0].WebSocketDebuggerURL != targets[0].WebSocketDebuggerURL {
		t.Errorf("Discover = %+v", got)
	}
}

func TestDiscoverUnreachableEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Discover(ctx, "127.0.0.1", 1); err == nil {
		t.Error("Discover against a closed port should fail")
	}
}
