package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

var errNilElement = wire.NewArgumentError("id", "element reference is required")

// Cookie is a browser cookie as exchanged on the wire
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   int64  `json:"expiry,omitempty"`
}

// ExecuteScript runs script synchronously in the current document and returns its value
func (s *Session) ExecuteScript(ctx context.Context, script string, args []any) (any, error) {
	if args == nil {
		args = []any{}
	}
	return s.Do(ctx, wire.CmdExecuteScript, map[string]any{"script": script, "args": args})
}

// ExecuteAsyncScript runs script with a trailing callback argument and waits for the callback
func (s *Session) ExecuteAsyncScript(ctx context.Context, script string, args ...any) (any, error) {
	result, err := s.async.Execute(ctx, script, args...)
	if err != nil {
		return nil, err
	}
	s.UpdateActivity()
	return wire.Unwrap(result, s.ID), nil
}

// Navigate loads url in the current window
func (s *Session) Navigate(ctx context.Context, url string) error {
	_, err := s.Do(ctx, wire.CmdGet, map[string]any{"url": url})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

// CurrentURL returns the URL of the current document
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	return s.doString(ctx, wire.CmdGetCurrentURL, nil)
}

// Title returns the title of the current document
func (s *Session) Title(ctx context.Context) (string, error) {
	return s.doString(ctx, wire.CmdGetTitle, nil)
}

// FindElement locates the first element matching value using the given strategy
func (s *Session) FindElement(ctx context.Context, using, value string) (*wire.ElementRef, error) {
	if err := validateLocator(using, value); err != nil {
		return nil, err
	}

	result, err := s.Do(ctx, wire.CmdFindElement, map[string]any{"using": using, "value": value})
	if err != nil {
		return nil, err
	}

	ref, ok := result.(*wire.ElementRef)
	if !ok {
		return nil, fmt.Errorf("expected an element reference, got %T", result)
	}
	return ref, nil
}

// FindElements locates every element matching value using the given strategy
func (s *Session) FindElements(ctx context.Context, using, value string) ([]*wire.ElementRef, error) {
	if err := validateLocator(using, value); err != nil {
		return nil, err
	}

	result, err := s.Do(ctx, wire.CmdFindElements, map[string]any{"using": using, "value": value})
	if err != nil {
		return nil, err
	}

	items, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of element references, got %T", result)
	}

	refs := make([]*wire.ElementRef, 0, len(items))
	for i, item := range items {
		ref, ok := item.(*wire.ElementRef)
		if !ok {
			return nil, fmt.Errorf("item %d is not an element reference: %T", i, item)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Click clicks the element
func (s *Session) Click(ctx context.Context, el *wire.ElementRef) error {
	if el == nil {
		return errNilElement
	}
	_, err := s.Do(ctx, wire.CmdClickElement, map[string]any{"id": el})
	return err
}

// SendKeys types keys into the element. Each key may be a string or a future
// of an earlier command; futures are resolved before sending.
func (s *Session) SendKeys(ctx context.Context, el *wire.ElementRef, keys ...any) error {
	if el == nil {
		return errNilElement
	}
	if keys == nil {
		keys = []any{}
	}
	_, err := s.Do(ctx, wire.CmdSendKeysToElement, map[string]any{"id": el, "value": keys})
	return err
}

// Text returns the visible text of the element
func (s *Session) Text(ctx context.Context, el *wire.ElementRef) (string, error) {
	if el == nil {
		return "", errNilElement
	}
	return s.doString(ctx, wire.CmdGetElementText, map[string]any{"id": el})
}

// Screenshot captures the current window as PNG bytes
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	encoded, err := s.doString(ctx, wire.CmdScreenshot, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	imageBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return imageBytes, nil
}

// Sleep pauses the session's command stream for d on the client
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	_, err := s.Do(ctx, wire.CmdSleep, map[string]any{"ms": d.Milliseconds()})
	return err
}

// Wait runs condition on the client as a wait pseudo-command
func (s *Session) Wait(ctx context.Context, condition func(args ...any) (any, error)) (any, error) {
	return s.Do(ctx, wire.CmdWait, map[string]any{"function": condition})
}

// Invoke runs fn on the client with args, after any futures among them resolve
func (s *Session) Invoke(ctx context.Context, fn func(args ...any) (any, error), args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	return s.Do(ctx, wire.CmdFunction, map[string]any{"function": fn, "args": args})
}

// EvaluateBools runs script and decodes its result as a list of booleans
func (s *Session) EvaluateBools(ctx context.Context, script string, args []any) ([]bool, error) {
	result, err := s.ExecuteScript(ctx, script, args)
	if err != nil {
		return nil, err
	}
	return wire.DecodeBoolArray(result)
}

// Cookies returns every cookie visible to the current document
func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	result, err := s.Do(ctx, wire.CmdGetAllCookies, nil)
	if err != nil {
		return nil, err
	}

	// Round trip through JSON to map the loose value onto Cookie
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookies: %w", err)
	}
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies: %w", err)
	}
	return cookies, nil
}

// AddCookie sets a cookie on the current document
func (s *Session) AddCookie(ctx context.Context, cookie Cookie) error {
	if cookie.Name == "" {
		return wire.NewArgumentError("cookie", "cookie name is required")
	}

	data, err := json.Marshal(cookie)
	if err != nil {
		return fmt.Errorf("failed to encode cookie: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to encode cookie: %w", err)
	}

	_, err = s.Do(ctx, wire.CmdAddCookie, map[string]any{"cookie": payload})
	return err
}

// quit ends the session on the remote end
func (s *Session) quit(ctx context.Context) error {
	_, err := s.Do(ctx, wire.CmdQuit, nil)
	return err
}

func (s *Session) doString(ctx context.Context, name wire.CommandName, params map[string]any) (string, error) {
	result, err := s.Do(ctx, name, params)
	if err != nil {
		return "", err
	}
	str, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T, expected a string", name, result)
	}
	return str, nil
}

func validateLocator(using, value string) error {
	if !locatorStrategies[using] {
		return wire.NewArgumentError("using", "unknown locator strategy %q", using)
	}
	if value == "" {
		return wire.NewArgumentError("value", "locator value is required")
	}
	return nil
}
