// Package launcher starts and tracks browser processes exposing a
// remote debugging port.
package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
)

// DefaultDebuggingPort is used when a launch request leaves the port at zero.
const DefaultDebuggingPort = 9222

// Process tracks one launched browser.
type Process struct {
	browser *model.Browser
	cmd     *exec.Cmd

	mu   sync.RWMutex
	done chan struct{}
}

// Browser returns a snapshot of the process record.
func (p *Process) Browser() *model.Browser {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := *p.browser
	return &snapshot
}

// Done returns a channel closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Launcher spawns browser processes with a remote debugging port and
// tracks them until exit.
type Launcher struct {
	dataDir string

	mu        sync.RWMutex
	processes map[string]*Process

	// onExit, when set, is invoked on the waiter goroutine after a
	// launched browser exits.
	onExit func(id string, exitCode int)
}

// NewLauncher creates a Launcher keeping per-browser profiles under dataDir.
func NewLauncher(dataDir string) *Launcher {
	return &Launcher{
		dataDir:   dataDir,
		processes: make(map[string]*Process),
	}
}

// SetOnExit sets the callback invoked when a launched browser exits.
func (l *Launcher) SetOnExit(callback func(id string, exitCode int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onExit = callback
}

// Launch starts a browser with the remote debugging port from the
// request. Each launch gets its own user data dir unless one is given,
// so multiple browsers can run debugging endpoints side by side.
func (l *Launcher) Launch(ctx context.Context, req *model.LaunchRequest) (*model.Browser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	port := req.Port
	if port == 0 {
		port = DefaultDebuggingPort
	}

	id := uuid.New().String()

	userDataDir := req.UserDataDir
	if userDataDir == "" {
		userDataDir = filepath.Join(l.dataDir, "profiles", id)
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", port),
		fmt.Sprintf("--user-data-dir=%s", userDataDir),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if req.StartURL != "" {
		args = append(args, req.StartURL)
	}

	cmd := exec.Command(req.BrowserPath, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	pid := cmd.Process.Pid
	browser := &model.Browser{
		ID:          id,
		BrowserPath: req.BrowserPath,
		Port:        port,
		StartURL:    req.StartURL,
		PID:         &pid,
		Status:      model.BrowserStatusRunning,
		StartedAt:   time.Now(),
	}

	proc := &Process{
		browser: browser,
		cmd:     cmd,
		done:    make(chan struct{}),
	}

	l.mu.Lock()
	l.processes[id] = proc
	l.mu.Unlock()

	go l.wait(proc)

	return proc.Browser(), nil
}

// wait blocks until the process exits, records the exit code and fires
// the exit callback.
func (l *Launcher) wait(proc *Process) {
	err := proc.cmd.Wait()

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		exitCode = -1
	}

	proc.mu.Lock()
	proc.browser.Status = model.BrowserStatusExited
	proc.browser.ExitCode = &exitCode
	id := proc.browser.ID
	proc.mu.Unlock()
	close(proc.done)

	l.mu.RLock()
	callback := l.onExit
	l.mu.RUnlock()

	if callback != nil {
		callback(id, exitCode)
	}
}

// Get returns a snapshot of one launched browser.
func (l *Launcher) Get(id string) (*model.Browser, error) {
	l.mu.RLock()
	proc, ok := l.processes[id]
	l.mu.RUnlock()

	if !ok {
		return nil, model.ErrBrowserNotFound
	}
	return proc.Browser(), nil
}

// List returns snapshots of all launched browsers, running or exited.
func (l *Launcher) List() []*model.Browser {
	l.mu.RLock()
	defer l.mu.RUnlock()

	browsers := make([]*model.Browser, 0, len(l.processes))
	for _, proc := range l.processes {
		browsers = append(browsers, proc.Browser())
	}
	return browsers
}

// Kill terminates a launched browser and waits for its exit to be
// recorded. Killing an already exited browser is a no-op.
func (l *Launcher) Kill(id string) error {
	l.mu.Lock()
	proc, ok := l.processes[id]
	if ok {
		delete(l.processes, id)
	}
	l.mu.Unlock()

	if !ok {
		return model.ErrBrowserNotFound
	}

	proc.mu.RLock()
	running := proc.browser.Status == model.BrowserStatusRunning
	proc.mu.RUnlock()

	if running && proc.cmd.Process != nil {
		if err := proc.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill browser: %w", err)
		}
	}

	<-proc.done
	return nil
}

// Close kills every launched browser still tracked.
func (l *Launcher) Close() error {
	l.mu.Lock()
	procs := make([]*Process, 0, len(l.processes))
	for id, proc := range l.processes {
		procs = append(procs, proc)
		delete(l.processes, id)
	}
	l.mu.Unlock()

	var firstErr error
	for _, proc := range procs {
		proc.mu.RLock()
		running := proc.browser.Status == model.BrowserStatusRunning
		proc.mu.RUnlock()

		if running && proc.cmd.Process != nil {
			if err := proc.cmd.Process.Kill(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		<-proc.done
	}
	return firstErr
}
