package wsbridge

import (
	"encoding/json"

	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Request is one command frame sent to the remote end
type Request struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	SessionID  string         `json:"sessionId,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Reply is the frame answering a Request with the same id
// Value stays raw until the reply has been matched to its command, because we only then know the session it belongs to
type Reply struct {
	ID        int64           `json:"id"`
	Status    wire.ErrorCode  `json:"status"`
	SessionID string          `json:"sessionId,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}
