package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/webhook"
)

type WebhookHandler struct {
	svc *webhook.Service
}

func NewWebhookHandler(svc *webhook.Service) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// Create answers with the signing secret, which is never shown again.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "webhook created", h.svc.Create)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.svc.List(r.Context(), session(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "webhooks", webhooks)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "webhook deleted", h.svc.Delete)
}
