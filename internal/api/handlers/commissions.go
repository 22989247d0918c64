package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/commission"
)

type CommissionHandler struct {
	svc   *commission.Service
	limit int
}

func NewCommissionHandler(svc *commission.Service, limit int) *CommissionHandler {
	return &CommissionHandler{svc: svc, limit: limit}
}

func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, commission.Fields, "commissions", h.svc.List)
}

func (h *CommissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "commission", h.svc.Get)
}

func (h *CommissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "commission created", h.svc.Create)
}

func (h *CommissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "commission updated", h.svc.Update)
}

func (h *CommissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "commission deleted", h.svc.Delete)
}

func (h *CommissionHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, commission.RequestFields, "commission requests", h.svc.ListRequests)
}

func (h *CommissionHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "commission request", h.svc.GetRequest)
}

func (h *CommissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "commission request submitted", h.svc.Submit)
}

func (h *CommissionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	serveStatus(w, r, "commission request updated", h.svc.UpdateStatus)
}

// Withdraw turns an approved earn request into a withdrawal.
func (h *CommissionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	req, err := h.svc.Withdraw(r.Context(), session(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, "commission withdrawn", req)
}

func (h *CommissionHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "commission request deleted", h.svc.DeleteRequest)
}
