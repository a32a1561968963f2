package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Test helper: Create a live session on a fake remote end
func setupTestSession(t *testing.T) (*Session, *fakeRemote) {
	t.Helper()

	manager, remotes := setupTestManager(t, nil)
	session, err := manager.CreateSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session, remotes[session.Endpoint]
}

func TestFindElement(t *testing.T) {
	session, remote := setupTestSession(t)
	ctx := context.Background()

	var gotUsing, gotValue any
	remote.handle(wire.CmdFindElement, func(params map[string]any) *wire.Response {
		gotUsing, gotValue = params["using"], params["value"]
		return wire.NewSuccessResponse(map[string]any{"ELEMENT": "el-1"})
	})

	el, err := session.FindElement(ctx, ByCSSSelector, "#login")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}

	if gotUsing != ByCSSSelector || gotValue != "#login" {
		t.Errorf("unexpected locator sent: %v %v", gotUsing, gotValue)
	}
	if el.ID() != "el-1" {
		t.Errorf("expected element el-1, got %s", el.ID())
	}
	if el.SessionID != session.ID {
		t.Errorf("expected element bound to %s, got %s", session.ID, el.SessionID)
	}
}

func TestFindElementsUnwrapsEveryItem(t *testing.T) {
	session, remote := setupTestSession(t)

	remote.handle(wire.CmdFindElements, func(map[string]any) *wire.Response {
		return wire.NewSuccessResponse([]any{
			map[string]any{"ELEMENT": "a"},
			map[string]any{"ELEMENT": "b"},
		})
	})

	els, err := session.FindElements(context.Background(), ByTagName, "li")
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}
	if len(els) != 2 || els[0].ID() != "a" || els[1].ID() != "b" {
		t.Errorf("unexpected elements: %v", els)
	}
}

func TestFindElementValidatesLocator(t *testing.T) {
	session, remote := setupTestSession(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		using    string
		value    string
		argument string
	}{
		{"unknown strategy", "by magic", "x", "using"},
		{"empty value", ByID, "", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.FindElement(ctx, tt.using, tt.value)

			var argErr *wire.ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("expected ArgumentError, got %v", err)
			}
			if argErr.Argument != tt.argument {
				t.Errorf("expected argument %q, got %q", tt.argument, argErr.Argument)
			}
		})
	}

	if remote.count(wire.CmdFindElement) != 0 {
		t.Error("invalid locators must not reach the remote end")
	}
}

func TestFindElementNoSuchElement(t *testing.T) {
	session, remote := setupTestSession(t)

	remote.handle(wire.CmdFindElement, func(map[string]any) *wire.Response {
		return wire.NewErrorResponse(wire.ErrNoSuchElement.Code, "Unable to locate element")
	})

	_, err := session.FindElement(context.Background(), ByID, "missing")
	if !errors.Is(err, wire.ErrNoSuchElement) {
		t.Errorf("expected NoSuchElement, got %v", err)
	}
}

func TestSendKeysResolvesEarlierResults(t *testing.T) {
	session, remote := setupTestSession(t)
	ctx := context.Background()

	remote.handle(wire.CmdGetTitle, func(map[string]any) *wire.Response {
		return wire.NewSuccessResponse("typed")
	})
	var gotID, gotKeys any
	remote.handle(wire.CmdSendKeysToElement, func(params map[string]any) *wire.Response {
		gotID, gotKeys = params["id"], params["value"]
		return wire.NewSuccessResponse(nil)
	})

	// Schedule the title lookup and feed its future into sendKeys
	titleCmd, err := session.Schedule(ctx, wire.CmdGetTitle, nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if _, err := titleCmd.Wait(ctx); err != nil {
		t.Fatalf("title failed: %v", err)
	}

	el := wire.NewElementRef("el-9", session.ID)
	if err := session.SendKeys(ctx, el, "hello ", titleCmd.FutureResult()); err != nil {
		t.Fatalf("SendKeys failed: %v", err)
	}

	if ref, ok := gotID.(*wire.ElementRef); !ok || ref.ID() != "el-9" {
		t.Errorf("expected element el-9, got %v", gotID)
	}
	keys, ok := gotKeys.([]any)
	if !ok || len(keys) != 2 || keys[0] != "hello " || keys[1] != "typed" {
		t.Errorf("unexpected keys: %v", gotKeys)
	}
}

func TestElementOperationsRejectNil(t *testing.T) {
	session, _ := setupTestSession(t)
	ctx := context.Background()

	if err := session.Click(ctx, nil); !errors.Is(err, errNilElement) {
		t.Errorf("Click: expected errNilElement, got %v", err)
	}
	if err := session.SendKeys(ctx, nil, "x"); !errors.Is(err, errNilElement) {
		t.Errorf("SendKeys: expected errNilElement, got %v", err)
	}
	if _, err := session.Text(ctx, nil); !errors.Is(err, errNilElement) {
		t.Errorf("Text: expected errNilElement, got %v", err)
	}
}

func TestScreenshot(t *testing.T) {
	session, remote := setupTestSession(t)
	png := []byte{0x89, 'P', 'N', 'G'}

	remote.handle(wire.CmdScreenshot, func(map[string]any) *wire.Response {
		return wire.NewSuccessResponse(base64.StdEncoding.EncodeToString(png))
	})

	got, err := session.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("expected %v, got %v", png, got)
	}

	// Corrupt payloads fail to decode
	remote.handle(wire.CmdScreenshot, func(map[string]any) *wire.Response {
		return wire.NewSuccessResponse("not base64!")
	})
	if _, err := session.Screenshot(context.Background()); err == nil {
		t.Error("expected a decode error")
	}
}

func TestSleepRunsLocally(t *testing.T) {
	session, remote := setupTestSession(t)

	start := time.Now()
	if err := session.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Sleep returned after %v", elapsed)
	}
	if remote.count(wire.CmdSleep) != 0 {
		t.Error("sleep must not reach the remote end")
	}
}

func TestInvokeAndWait(t *testing.T) {
	session, remote := setupTestSession(t)
	ctx := context.Background()

	sum := func(args ...any) (any, error) {
		total := 0
		for _, a := range args {
			total += a.(int)
		}
		return total, nil
	}

	got, err := session.Invoke(ctx, sum, 1, 2, 3)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != 6 {
		t.Errorf("expected 6, got %v", got)
	}

	boom := errors.New("condition never held")
	_, err = session.Wait(ctx, func(args ...any) (any, error) { return nil, boom })
	if !errors.Is(err, boom) || !errors.Is(err, wire.ErrUnhandled) {
		t.Errorf("expected unhandled failure wrapping the cause, got %v", err)
	}

	if remote.count(wire.CmdFunction)+remote.count(wire.CmdWait) != 0 {
		t.Error("local commands must not reach the remote end")
	}
}

func TestEvaluateBools(t *testing.T) {
	session, remote := setupTestSession(t)

	var gotArgs any
	remote.handle(wire.CmdExecuteScript, func(params map[string]any) *wire.Response {
		gotArgs = params["args"]
		return wire.NewSuccessResponse([]any{true, float64(0), "TRUE", false})
	})

	got, err := session.EvaluateBools(context.Background(), "return checks()", nil)
	if err != nil {
		t.Fatalf("EvaluateBools failed: %v", err)
	}

	if args, ok := gotArgs.([]any); !ok || len(args) != 0 {
		t.Errorf("expected empty args array, got %v", gotArgs)
	}

	want := []bool{true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestCookies(t *testing.T) {
	session, remote := setupTestSession(t)
	ctx := context.Background()

	remote.handle(wire.CmdGetAllCookies, func(map[string]any) *wire.Response {
		return wire.NewSuccessResponse([]any{
			map[string]any{"name": "sid", "value": "abc", "secure": true, "expiry": float64(1700000000)},
		})
	})
	var sent map[string]any
	remote.handle(wire.CmdAddCookie, func(params map[string]any) *wire.Response {
		sent, _ = params["cookie"].(map[string]any)
		return wire.NewSuccessResponse(nil)
	})

	cookies, err := session.Cookies(ctx)
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}
	if len(cookies) != 1 || cookies[0].Name != "sid" || !cookies[0].Secure || cookies[0].Expiry != 1700000000 {
		t.Errorf("unexpected cookies: %+v", cookies)
	}

	if err := session.AddCookie(ctx, Cookie{Name: "theme", Value: "dark", Path: "/"}); err != nil {
		t.Fatalf("AddCookie failed: %v", err)
	}
	if sent["name"] != "theme" || sent["value"] != "dark" || sent["path"] != "/" {
		t.Errorf("unexpected cookie sent: %v", sent)
	}
	if _, ok := sent["domain"]; ok {
		t.Error("empty fields must be omitted")
	}

	var argErr *wire.ArgumentError
	if err := session.AddCookie(ctx, Cookie{Value: "x"}); !errors.As(err, &argErr) {
		t.Errorf("expected ArgumentError for nameless cookie, got %v", err)
	}
}

func TestExecuteAsyncScript(t *testing.T) {
	session, remote := setupTestSession(t)

	polls := 0
	remote.handle(wire.CmdExecuteScript, func(params map[string]any) *wire.Response {
		args, _ := params["args"].([]any)
		if len(args) == 4 {
			// The wrapper install carries the user script and its arguments
			return wire.NewSuccessResponse(nil)
		}
		polls++
		if polls < 3 {
			return wire.NewSuccessResponse([]any{args[0], float64(0)})
		}
		return wire.NewSuccessResponse(map[string]any{"ELEMENT": "async-el"})
	})

	got, err := session.ExecuteAsyncScript(context.Background(), "arguments[0](document.body)")
	if err != nil {
		t.Fatalf("ExecuteAsyncScript failed: %v", err)
	}

	ref, ok := got.(*wire.ElementRef)
	if !ok || ref.ID() != "async-el" {
		t.Errorf("expected unwrapped element, got %v", got)
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
}
