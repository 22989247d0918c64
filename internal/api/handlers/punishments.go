package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/punishment"
)

type PunishmentHandler struct {
	svc   *punishment.Service
	limit int
}

func NewPunishmentHandler(svc *punishment.Service, limit int) *PunishmentHandler {
	return &PunishmentHandler{svc: svc, limit: limit}
}

func (h *PunishmentHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, punishment.Fields, "punishments", h.svc.List)
}

func (h *PunishmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "punishment", h.svc.Get)
}

func (h *PunishmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "punishment created", h.svc.Create)
}

func (h *PunishmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "punishment updated", h.svc.Update)
}

func (h *PunishmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "punishment deleted", h.svc.Delete)
}

func (h *PunishmentHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, punishment.RequestFields, "punishment requests", h.svc.ListRequests)
}

func (h *PunishmentHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "punishment request", h.svc.GetRequest)
}

func (h *PunishmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "punishment request submitted", h.svc.Submit)
}

func (h *PunishmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	serveStatus(w, r, "punishment request updated", h.svc.UpdateStatus)
}

func (h *PunishmentHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "punishment request deleted", h.svc.DeleteRequest)
}
