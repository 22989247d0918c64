package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/target"
)

type TargetHandler struct {
	svc   *target.Service
	limit int
}

func NewTargetHandler(svc *target.Service, limit int) *TargetHandler {
	return &TargetHandler{svc: svc, limit: limit}
}

func (h *TargetHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, target.Fields, "targets", h.svc.List)
}

func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "target", h.svc.Get)
}

func (h *TargetHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "target created", h.svc.Create)
}

func (h *TargetHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "target updated", h.svc.Update)
}

func (h *TargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "target deleted", h.svc.Delete)
}
