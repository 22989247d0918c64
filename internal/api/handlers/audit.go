package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/audit"
)

type AuditHandler struct {
	svc   *audit.Service
	limit int
}

func NewAuditHandler(svc *audit.Service, limit int) *AuditHandler {
	return &AuditHandler{svc: svc, limit: limit}
}

func (h *AuditHandler) Logs(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, audit.Fields, "audit logs", h.svc.List)
}
