package wire

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		response *Response
		want     string
	}{
		{
			name:     "success has no message",
			response: NewSuccessResponse("ok"),
			want:     "",
		},
		{
			name:     "message only",
			response: &Response{Status: 7, Value: map[string]any{"message": "not found"}},
			want:     "not found",
		},
		{
			name: "structured stack trace",
			response: &Response{Status: 7, Value: map[string]any{
				"message": "not found",
				"stackTrace": []any{
					map[string]any{"methodName": "foo", "fileName": "bar.js", "lineNumber": float64(10)},
					map[string]any{"className": "Finder", "methodName": "find", "fileName": "finder.js", "lineNumber": float64(3)},
				},
			}},
			want: "not found\nfoo() at bar.js:10\nFinder.find() at finder.js:3",
		},
		{
			name: "frame placeholders",
			response: &Response{Status: 13, Value: map[string]any{
				"message":    "boom",
				"stackTrace": []any{map[string]any{}},
			}},
			want: "boom\n<anonymous>() at <unknown>",
		},
		{
			name: "raw stack string",
			response: &Response{Status: 17, Value: map[string]any{
				"message": "ReferenceError: x is not defined",
				"stack":   "at <anonymous>:1:1",
			}},
			want: "ReferenceError: x is not defined\nat <anonymous>:1:1",
		},
		{
			name:     "payload without message",
			response: &Response{Status: 13, Value: "plain failure"},
			want:     "plain failure",
		},
		{
			name:     "missing payload",
			response: &Response{Status: 13},
			want:     "Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.response.ErrorMessage())
		})
	}
}

func TestErrorMessageFromDecodedJSON(t *testing.T) {
	body := `{"status":7,"value":{"message":"not found","stackTrace":[{"methodName":"foo","fileName":"bar.js","lineNumber":10}]}}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.False(t, resp.IsSuccess())
	msg := resp.ErrorMessage()
	assert.True(t, strings.HasPrefix(msg, "not found"))
	assert.Contains(t, msg, "foo() at bar.js:10")
}

func TestErrReturnsNilOnSuccess(t *testing.T) {
	assert.NoError(t, NewSuccessResponse(nil).Err())
}
