package http

import (
	"encoding/json"
	"net/http"
)

// Toast styling tiers. The toast itself is fire-and-forget: the page shim
// appends a node and removes it after a fixed 3 seconds, toasts stack in
// append order, and nothing is deduplicated.
const (
	toastSuccess = "success"
	toastError   = "error"
)

const toastDurationMs = 3000

// uiResponse builds an HX-Trigger response: named client events (toast,
// list reload, form reset, modal close) plus an optional HTML body.
type uiResponse struct {
	status   int
	triggers map[string]any
	body     []byte
}

func newUIResponse() *uiResponse {
	return &uiResponse{
		status:   http.StatusOK,
		triggers: make(map[string]any),
	}
}

func (u *uiResponse) Status(code int) *uiResponse {
	u.status = code
	return u
}

func (u *uiResponse) Toast(kind, message string) *uiResponse {
	u.triggers["show-notification"] = map[string]any{
		"type":     kind,
		"message":  message,
		"duration": toastDurationMs,
	}
	return u
}

// ReloadItems asks the page to refetch the items table.
func (u *uiResponse) ReloadItems() *uiResponse {
	u.triggers["items:reload"] = struct{}{}
	return u
}

// ResetForm asks the page to reset the create form to its defaults.
func (u *uiResponse) ResetForm() *uiResponse {
	u.triggers["form:reset"] = struct{}{}
	return u
}

// CloseModal asks the page to hide the edit modal.
func (u *uiResponse) CloseModal() *uiResponse {
	u.triggers["modal:close"] = struct{}{}
	return u
}

func (u *uiResponse) Body(b []byte) *uiResponse {
	u.body = b
	return u
}

func (u *uiResponse) Write(w http.ResponseWriter) {
	if len(u.triggers) > 0 {
		if payload, err := json.Marshal(u.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	if len(u.body) > 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(u.status)
	if len(u.body) > 0 {
		_, _ = w.Write(u.body)
	}
}
