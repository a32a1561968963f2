package httpwire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/command"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

const defaultHTTPTimeout = 60 * time.Second

// Client dispatches commands to a remote end speaking the JSON wire protocol
// over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the remote end at baseURL, for example
// http://localhost:4444/wd/hub.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the remote end address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DispatchCommand sends cmd and sets its response. Commands without a route
// finish with UnknownCommand. Transport failures are returned.
func (c *Client) DispatchCommand(ctx context.Context, cmd *command.Command) error {
	route, ok := RouteFor(cmd.Name())
	if !ok {
		cmd.SetResponse(wire.NewErrorResponse(wire.ErrUnknownCommand.Code,
			fmt.Sprintf("no HTTP route for command %s", cmd.Name())))
		return nil
	}

	// Fill the path template; parameters used in the path leave the body
	path, body, err := expandPath(route.Path, cmd.SessionID(), cmd.Params().Native())
	if err != nil {
		return err
	}

	var reader io.Reader
	if route.Method == http.MethodPost {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode parameters: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, route.Method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if reader != nil {
		request.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	c.logger.Debug("sending command", "command", cmd.Name().String(), "method", route.Method, "path", path)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Name(), err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	cmd.SetResponse(decodeResponse(response.StatusCode, raw, cmd.SessionID()))
	return nil
}

// Status probes GET /status and fails unless the remote end reports success.
func (c *Client) Status(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to reach remote end: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return decodeResponse(response.StatusCode, raw, "").Err()
}

// Close drops idle keep-alive connections. Requests in flight are unaffected.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// decodeResponse turns an HTTP reply into a Response. Element markers in the
// value are bound to the session the reply belongs to.
func decodeResponse(httpStatus int, raw []byte, sessionID string) *wire.Response {
	var resp wire.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = http.StatusText(httpStatus)
		}
		if httpStatus == http.StatusNotFound {
			return wire.NewErrorResponse(wire.ErrUnknownCommand.Code, message)
		}
		return wire.NewErrorResponse(wire.Unhandled, message)
	}

	if httpStatus >= http.StatusBadRequest && resp.IsSuccess() {
		resp.Status = wire.Unhandled
		if resp.Value == nil {
			resp.Value = map[string]any{"message": http.StatusText(httpStatus)}
		}
	}

	owner := sessionID
	if resp.SessionID != "" {
		owner = resp.SessionID
	}
	resp.Value = wire.Unwrap(resp.Value, owner)
	return &resp
}

// expandPath substitutes ':name' segments of template. The session id fills
// ':sessionId'; other segments consume the parameter of the same name, which
// is removed from the returned body. Element references contribute their
// handle.
func expandPath(template, sessionID string, params map[string]any) (string, map[string]any, error) {
	body := make(map[string]any, len(params))
	for k, v := range params {
		body[k] = v
	}

	segments := strings.Split(template, "/")
	for i, segment := range segments {
		if !strings.HasPrefix(segment, ":") {
			continue
		}
		key := segment[1:]

		if key == "sessionId" {
			if sessionID == "" {
				return "", nil, wire.NewArgumentError("sessionId", "command needs a session")
			}
			segments[i] = url.PathEscape(sessionID)
			continue
		}

		value, ok := body[key]
		if !ok || value == nil {
			return "", nil, wire.NewArgumentError(key, "missing path parameter")
		}
		delete(body, key)
		segments[i] = url.PathEscape(pathValue(value))
	}
	return strings.Join(segments, "/"), body, nil
}

func pathValue(v any) string {
	if ref, ok := v.(*wire.ElementRef); ok {
		return ref.ID()
	}
	return fmt.Sprint(v)
}
