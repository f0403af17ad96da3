package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
)

// discoverTimeout bounds one request to a debugging endpoint.
const discoverTimeout = 5 * time.Second

var discoverClient = &http.Client{Timeout: discoverTimeout}

// Discover enumerates the attachable pages a browser's remote debugging
// endpoint reports via /json/list.
func Discover(ctx context.Context, host string, port int) ([]model.Target, error) {
	url := fmt.Sprintf("http://%s:%d/json/list", host, port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build discovery request: %w", err)
	}

	resp, err := discoverClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query debugging endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debugging endpoint returned status %d", resp.StatusCode)
	}

	var targets []model.Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode target list: %w", err)
	}

	return targets, nil
}

// Version reports the browser and protocol versions from /json/version.
func Version(ctx context.Context, host string, port int) (map[string]string, error) {
	url := fmt.Sprintf("http://%s:%d/json/version", host, port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build version request: %w", err)
	}

	resp, err := discoverClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query debugging endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debugging endpoint returned status %d", resp.StatusCode)
	}

	var version map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return nil, fmt.Errorf("failed to decode version info: %w", err)
	}

	return version, nil
}
