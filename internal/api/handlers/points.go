package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/point"
)

type PointHandler struct {
	svc   *point.Service
	limit int
}

func NewPointHandler(svc *point.Service, limit int) *PointHandler {
	return &PointHandler{svc: svc, limit: limit}
}

func (h *PointHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, point.Fields, "points", h.svc.List)
}

func (h *PointHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "point", h.svc.Get)
}

func (h *PointHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "point created", h.svc.Create)
}

func (h *PointHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "point updated", h.svc.Update)
}

func (h *PointHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "point deleted", h.svc.Delete)
}

func (h *PointHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, point.RequestFields, "point requests", h.svc.ListRequests)
}

func (h *PointHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "point request", h.svc.GetRequest)
}

func (h *PointHandler) Earn(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "point request submitted", h.svc.Earn)
}

func (h *PointHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	serveStatus(w, r, "point request updated", h.svc.UpdateStatus)
}

func (h *PointHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req point.WithdrawRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	pr, err := h.svc.Withdraw(r.Context(), session(r), req.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, "points withdrawn", pr)
}

func (h *PointHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := userParam(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	b, err := h.svc.Balance(r.Context(), session(r), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "point balance", b)
}

func (h *PointHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "point request deleted", h.svc.DeleteRequest)
}
