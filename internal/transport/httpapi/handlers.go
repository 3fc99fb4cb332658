package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/petrijr/nodeflux/internal/persistence"
	"github.com/petrijr/nodeflux/pkg/api"
)

type handler struct {
	dispatcher api.Dispatcher
	workflows  persistence.WorkflowStore
	logger     *slog.Logger
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "API is running",
	})
}

func (h *handler) listNodes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.dispatcher.ListNodes(r.Context()))
}

// executeNode dispatches the JSON object body to the node named in the path.
// An empty body is an empty payload.
func (h *handler) executeNode(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, api.NewFailureResult(api.StageValidationFailed, err.Error()))
		return
	}

	res := h.dispatcher.Execute(r.Context(), r.PathValue("id"), payload)
	h.writeJSON(w, r, statusForStage(res.Stage), res)
}

func statusForStage(stage api.Stage) int {
	switch stage {
	case api.StageSucceeded:
		return http.StatusOK
	case api.StageNotFound:
		return http.StatusNotFound
	case api.StageValidationFailed:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errNotObject = errors.New("Request body must be a JSON object")

func decodePayload(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.New("Invalid JSON body: " + err.Error())
	}
	if dec.More() {
		return nil, errors.New("Invalid JSON body: trailing data")
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return payload, nil
}

type workflowRequest struct {
	Name *string         `json:"name"`
	Data json.RawMessage `json:"data"`
}

func (h *handler) listWorkflows(w http.ResponseWriter, r *http.Request) {
	wfs, err := h.workflows.ListWorkflows(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, wfs)
}

func (h *handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !h.decodeWorkflowRequest(w, r, &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	wf, err := h.workflows.CreateWorkflow(r.Context(), name, req.Data)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, wf)
}

func (h *handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.workflows.GetWorkflow(r.Context(), r.PathValue("id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, wf)
}

// updateWorkflow replaces the fields present in the body; absent fields keep
// their stored value.
func (h *handler) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !h.decodeWorkflowRequest(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	current, err := h.workflows.GetWorkflow(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	name, data := current.Name, current.Data
	if req.Name != nil {
		name = *req.Name
	}
	if req.Data != nil {
		data = req.Data
	}

	wf, err := h.workflows.UpdateWorkflow(r.Context(), id, name, data)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, wf)
}

func (h *handler) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := h.workflows.DeleteWorkflow(r.Context(), r.PathValue("id")); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) decodeWorkflowRequest(w http.ResponseWriter, r *http.Request, req *workflowRequest) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h *handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, persistence.ErrWorkflowNotFound):
		h.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, persistence.ErrInvalidWorkflow):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "workflow store failure",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		h.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeJSON encodes v before committing the status, so an unencodable
// value becomes a 500 instead of an empty response.
func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "encode response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		buf.Reset()
		buf.WriteString(`{"success":false,"error":"internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.DebugContext(r.Context(), "write response", slog.Any("error", err))
	}
}
