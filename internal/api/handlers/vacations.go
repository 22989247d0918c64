package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/staffdesk/internal/api/respond"
	"github.com/nikhilbhutani/staffdesk/internal/apperr"
	"github.com/nikhilbhutani/staffdesk/internal/models"
	"github.com/nikhilbhutani/staffdesk/internal/vacation"
)

type VacationHandler struct {
	svc   *vacation.Service
	limit int
}

func NewVacationHandler(svc *vacation.Service, limit int) *VacationHandler {
	return &VacationHandler{svc: svc, limit: limit}
}

func (h *VacationHandler) List(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, vacation.Fields, "vacations", h.svc.List)
}

func (h *VacationHandler) Get(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "vacation", h.svc.Get)
}

func (h *VacationHandler) Create(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "vacation created", h.svc.Create)
}

func (h *VacationHandler) Update(w http.ResponseWriter, r *http.Request) {
	serveUpdate(w, r, "vacation updated", h.svc.Update)
}

func (h *VacationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "vacation deleted", h.svc.Delete)
}

// Balance answers ?user_id=&date= with the caller and today as defaults.
func (h *VacationHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	userID, err := userParam(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	on := models.DateOf(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		if on, err = models.ParseDate(raw); err != nil {
			respond.Error(w, r, apperr.ErrInvalidInput.WithDetail("date"))
			return
		}
	}

	b, err := h.svc.Balance(r.Context(), session(r), id, userID, on)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, "vacation balance", b)
}

func (h *VacationHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.limit, vacation.RequestFields, "vacation requests", h.svc.ListRequests)
}

func (h *VacationHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	serveGet(w, r, "vacation request", h.svc.GetRequest)
}

func (h *VacationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	serveCreate(w, r, "vacation request submitted", h.svc.Submit)
}

func (h *VacationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	serveStatus(w, r, "vacation request updated", h.svc.UpdateStatus)
}

func (h *VacationHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	serveDelete(w, r, "vacation request deleted", h.svc.DeleteRequest)
}

// userParam reads ?user_id=, falling back to the caller.
func userParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return session(r).UserID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.ErrInvalidInput.WithDetail("user_id")
	}
	return id, nil
}
