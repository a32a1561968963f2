package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DiscoverEndpoint asks the remote end at baseURL for its WebSocket address
func DiscoverEndpoint(ctx context.Context, baseURL string) (string, error) {

	// Query the /json/version endpoint for the WebSocket address
	url := strings.TrimRight(baseURL, "/") + "/json/version"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build discovery request: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("failed to connect to remote end: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	// Parse version info
	var versionInfo struct {
		Browser              string `json:"Browser"`
		ProtocolVersion      string `json:"Protocol-Version"`
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}

	if err := json.Unmarshal(body, &versionInfo); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if versionInfo.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no WebSocket URL advertised")
	}

	return versionInfo.WebSocketDebuggerURL, nil
}
