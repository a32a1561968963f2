package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dhruvsoni1802/wirebridge/internal/pool"
	"github.com/dhruvsoni1802/wirebridge/internal/session"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// Handlers contains HTTP handlers for the API
type Handlers struct {
	sessionManager *session.Manager
	endpoints      *pool.EndpointPool
}

// NewHandlers creates a new Handlers instance
func NewHandlers(manager *session.Manager, endpoints *pool.EndpointPool) *Handlers {
	return &Handlers{
		sessionManager: manager,
		endpoints:      endpoints,
	}
}

// CreateSession handles POST /sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
			return
		}
	}

	sess, err := h.sessionManager.CreateSession(r.Context(), req.Capabilities)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionLimitReached):
			writeError(w, http.StatusServiceUnavailable, ErrCodeSessionLimitReached, err.Error())
		case errors.Is(err, pool.ErrNoHealthyEndpoints), errors.Is(err, pool.ErrEmptyPool):
			writeError(w, http.StatusServiceUnavailable, ErrCodeNoEndpointsAvailable, err.Error())
		default:
			writeError(w, http.StatusBadGateway, ErrCodeSessionCreateFailed, err.Error())
		}
		return
	}

	// Return 201 Created
	writeJSON(w, http.StatusCreated, toSessionInfo(sess))
}

// ListSessions handles GET /sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionManager.ListSessions()

	sessionInfos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sessionInfos = append(sessionInfos, toSessionInfo(sess))
	}

	response := ListSessionsResponse{
		Sessions: sessionInfos,
		Count:    len(sessionInfos),
	}

	writeJSON(w, http.StatusOK, response)
}

// GetSession handles GET /sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	sess, err := h.sessionManager.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrCodeSessionNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSessionInfo(sess))
}

// ResumeSession handles POST /sessions/{id}/resume
func (h *Handlers) ResumeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	sess, err := h.sessionManager.ResumeSession(r.Context(), sessionID)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionInfo(sess))
}

// DestroySession handles DELETE /sessions/{id}
func (h *Handlers) DestroySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := h.sessionManager.DestroySession(r.Context(), sessionID); err != nil {
		h.writeSessionError(w, err)
		return
	}

	// Return 204 No Content
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteCommand handles POST /sessions/{id}/commands
func (h *Handlers) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	name, err := wire.ParseCommandName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeUnknownCommand, err.Error())
		return
	}

	// The session may live only in Redis after a restart
	if _, err := h.sessionManager.ResumeSession(r.Context(), sessionID); err != nil {
		h.writeSessionError(w, err)
		return
	}

	// Element markers in the body become references bound to this session
	params, _ := wire.Unwrap(req.Parameters, sessionID).(map[string]any)

	resp, err := h.sessionManager.Execute(r.Context(), sessionID, name, params)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeCommandResponse(w, resp)
}

// ExecuteAsyncScript handles POST /sessions/{id}/execute_async
func (h *Handlers) ExecuteAsyncScript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req ExecuteAsyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if req.Script == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "script is required")
		return
	}

	if _, err := h.sessionManager.ResumeSession(r.Context(), sessionID); err != nil {
		h.writeSessionError(w, err)
		return
	}

	args, _ := wire.Unwrap(req.Args, sessionID).([]any)

	result, err := h.sessionManager.ExecuteAsyncScript(r.Context(), sessionID, req.Script, args)
	if err != nil {
		if isLocalMisuse(err) || errors.Is(err, session.ErrSessionNotFound) {
			h.writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusInternalServerError, CommandResponse{
			Status:    wireStatus(err),
			SessionID: sessionID,
			Value:     map[string]any{"message": err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, CommandResponse{
		Status:    wire.Success,
		SessionID: sessionID,
		Value:     result,
	})
}

// ListEndpoints handles GET /endpoints
func (h *Handlers) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.endpoints.GetMetrics())
}

// writeSessionError maps session lookup and local misuse failures to HTTP errors
func (h *Handlers) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, ErrCodeSessionNotFound, err.Error())
	case errors.Is(err, session.ErrSessionClosed):
		writeError(w, http.StatusGone, ErrCodeSessionNotFound, err.Error())
	case errors.Is(err, session.ErrSessionLimitReached):
		writeError(w, http.StatusServiceUnavailable, ErrCodeSessionLimitReached, err.Error())
	case isLocalMisuse(err):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}

// writeCommandResponse renders a finished command in wire form. Failures carry
// the formatted message instead of the raw payload.
func writeCommandResponse(w http.ResponseWriter, resp *wire.Response) {
	if resp.IsSuccess() {
		writeJSON(w, http.StatusOK, CommandResponse{
			Status:    resp.Status,
			SessionID: resp.SessionID,
			Value:     resp.Value,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, CommandResponse{
		Status:    resp.Status,
		SessionID: resp.SessionID,
		Value:     map[string]any{"message": resp.ErrorMessage()},
	})
}

func isLocalMisuse(err error) bool {
	var argErr *wire.ArgumentError
	var stateErr *wire.StateError
	return errors.As(err, &argErr) || errors.As(err, &stateErr)
}

// wireStatus finds the status code of the most specific category err belongs to
func wireStatus(err error) wire.ErrorCode {
	var remote *wire.RemoteError
	if errors.As(err, &remote) && remote.Response != nil {
		return remote.Response.Status
	}

	for code := wire.ErrorCode(1); ; code++ {
		category := wire.ForCode(code)
		if category == wire.ErrWebDriver {
			break
		}
		if errors.Is(err, category) {
			return code
		}
	}
	return wire.Unhandled
}
